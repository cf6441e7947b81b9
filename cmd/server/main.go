package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/assign"
	"github.com/Brightline-AV/castor/internal/cache"
	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/push"
	"github.com/Brightline-AV/castor/internal/screenserver"
	"github.com/Brightline-AV/castor/internal/status"
)

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	env := LoadEnvironment()

	store := initStore(env)
	storageSystem := InitStorage(env)

	var pageCache *cache.Cache
	if env.RedisAddress != "" {
		pageCache = cache.New(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	}

	var notifier *push.Client
	if env.MQTTBrokerURL != "" {
		var err error
		notifier, err = push.Connect(env.MQTTBrokerURL, "castor-server")
		if err != nil {
			log.Error().Err(err).Msg("MQTT unavailable, device push disabled")
			notifier = nil
		}
		defer notifier.Close()
	}

	binder := screenserver.NewHTTPBinder()
	defer binder.Close()

	registry := screenserver.NewRegistry(store, binder)
	assigner := assign.NewAssigner(store, registry, notifier)

	// status polling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := store.GetSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}
	checker := status.NewChecker(store, registry, pageCache)
	poller := status.NewPoller(checker, store, time.Duration(settings.RefreshInterval)*time.Second)
	go poller.Run(ctx)

	// set up gin router
	r := gin.Default()
	RegisterRoutes(r, env, store, storageSystem, registry, assigner, notifier, pageCache)

	log.Info().Str("address", env.ServerAddress).Msg("listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func initStore(env Environment) db.Store {
	if env.DatabaseURL != "" {
		store, err := db.NewPgStore(env.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db init")
		}
		if err := db.RunMigrations(db.Conn(store), env.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		return store
	}

	store, err := db.NewFileStore(env.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("file store init")
	}
	return store
}
