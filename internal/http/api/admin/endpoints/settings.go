package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/http/api"
	"github.com/Brightline-AV/castor/internal/http/api/admin/packets"
	"github.com/Brightline-AV/castor/internal/model"
)

type SettingsController struct {
	store db.Store
}

// SettingsModule mounts the app configuration endpoints.
func SettingsModule(store db.Store) api.Module {
	ctl := &SettingsController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/settings", ctl.getSettings)
		c.PUT("/settings", ctl.updateSettings)
	})
}

// GET /api/admin/settings
func (t *SettingsController) getSettings(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	settings, err := t.store.GetSettings()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load settings"}
	}
	return packets.SettingsResponse(settings), nil
}

// PUT /api/admin/settings
func (t *SettingsController) updateSettings(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	settings, err := t.store.GetSettings()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load settings"}
	}
	if request.BasePort != nil {
		settings.BasePort = *request.BasePort
	}
	if request.PIN != nil {
		settings.PIN = *request.PIN
	}
	if request.RefreshInterval != nil {
		settings.RefreshInterval = *request.RefreshInterval
	}

	if err := t.store.UpdateSettings(settings); err != nil {
		log.Error().Err(err).Msg("failed to persist settings")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update settings"}
	}
	return packets.SettingsResponse(settings), nil
}
