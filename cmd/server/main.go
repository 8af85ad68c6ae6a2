package main

import (
	"context"
	"os"
	"time"

	"github.com/amora-app/amora-server/internal/app"
	"github.com/amora-app/amora-server/internal/cache"
	"github.com/amora-app/amora-server/internal/config"
	"github.com/amora-app/amora-server/internal/db"
	"github.com/amora-app/amora-server/internal/logger"
	"github.com/amora-app/amora-server/internal/notify"
	"github.com/amora-app/amora-server/internal/server"
	"github.com/amora-app/amora-server/internal/service/engagement"
	"github.com/amora-app/amora-server/internal/service/match"
	"github.com/amora-app/amora-server/internal/service/profile"
)

func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCache.Ping(ctx); err != nil {
		cancel()
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	cancel()

	appCtx := app.New(database, redisCache, log, notify.NewSlogDispatcher(log))

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Warn("seeding test data failed", "err", err)
		}
	}

	registrars := []server.Registrar{
		match.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		engagement.NewRegistrar(appCtx),
	}

	if err := server.StartHTTPServer(appCtx, cfg, registrars...); err != nil {
		log.Error("http server failed", "err", err)
		os.Exit(1)
	}
}
