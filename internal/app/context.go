package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-swipe/internal/cache"
	"github.com/oggyb/muzz-swipe/internal/config"
	"github.com/oggyb/muzz-swipe/internal/quota"
)

// AppContext holds shared dependencies (Config, DB, Redis, Logger, plan catalog)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Catalog    *quota.Catalog
}

// New creates a new AppContext. A nil catalog means the built-in plans.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, catalog *quota.Catalog) *AppContext {
	if catalog == nil {
		catalog = quota.DefaultCatalog()
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Catalog:    catalog,
	}
}
