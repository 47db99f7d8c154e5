package main

import (
	"os"

	"github.com/oggyb/muzz-swipe/internal/config"
	"github.com/oggyb/muzz-swipe/internal/db"
	"github.com/oggyb/muzz-swipe/internal/logger"
	"github.com/oggyb/muzz-swipe/internal/quota"
)

func main() {
	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)

	catalog, err := quota.LoadCatalog(cfg.Quota.PlansFile)
	if err != nil {
		logger.Error("failed to load plans", "err", err)
		os.Exit(1)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, catalog, cfg.Location()); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	logger.Info("seeding completed")
}
