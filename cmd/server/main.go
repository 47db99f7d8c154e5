package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oggyb/muzz-swipe/internal/app"
	"github.com/oggyb/muzz-swipe/internal/cache"
	"github.com/oggyb/muzz-swipe/internal/config"
	"github.com/oggyb/muzz-swipe/internal/db"
	"github.com/oggyb/muzz-swipe/internal/logger"
	"github.com/oggyb/muzz-swipe/internal/quota"
	"github.com/oggyb/muzz-swipe/internal/server"
	"github.com/oggyb/muzz-swipe/internal/service/matchmaking"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := quota.LoadCatalog(cfg.Quota.PlansFile)
	if err != nil {
		log.Error("failed to load plans", "err", err)
		return
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(cfg, database, redisCache, log, catalog)

	registrars := []server.Registrar{
		matchmaking.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, catalog, cfg.Location()); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	go func() {
		log.Info("starting metrics server", "addr", cfg.Metrics.Addr)
		if err := server.StartMetricsServer(ctx, cfg.Metrics.Addr); err != nil {
			log.Error("metrics server stopped", "err", err)
		}
	}()

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(cfg, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
