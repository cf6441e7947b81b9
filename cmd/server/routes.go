package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Brightline-AV/castor/internal/assign"
	"github.com/Brightline-AV/castor/internal/cache"
	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/http/api"
	adminapi "github.com/Brightline-AV/castor/internal/http/api/admin/endpoints"
	"github.com/Brightline-AV/castor/internal/push"
	"github.com/Brightline-AV/castor/internal/screenserver"
	"github.com/Brightline-AV/castor/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(
	r *gin.Engine,
	env Environment,
	store db.Store,
	storageSystem storage.Storage,
	registry *screenserver.Registry,
	assigner *assign.Assigner,
	notifier *push.Client,
	pageCache *cache.Cache,
) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		adminapi.AuthPublicModule(env.SecretKey, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		adminapi.ContentModule(store, storageSystem, assigner),
		adminapi.ScreenModule(store, registry, assigner, notifier, pageCache),
		adminapi.PlaylistModule(store, assigner),
		adminapi.SettingsModule(store),
		// session endpoints that require auth
		adminapi.AuthSessionModule(env.SecretKey, store),
	)

	// Static content
	if !env.UseSpaces {
		r.Static("/uploads", "./uploads")
	}
}
