package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/db"
	"github.com/dpp-pk/constructor-backend/internal/platform/cache"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/platform/objectstore"
	"github.com/dpp-pk/constructor-backend/internal/platform/sendgrid"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

// Clients holds the external connections owned by the app.
type Clients struct {
	DB       *gorm.DB
	Cache    cache.Store
	Objects  objectstore.Store
	Mailer   services.Mailer

	database *db.Service
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	database, err := db.NewService(log, db.ConfigFromEnv())
	if err != nil {
		return out, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(database.DB()); err != nil {
		_ = database.Close()
		return out, fmt.Errorf("automigrate: %w", err)
	}
	out.database = database
	out.DB = database.DB()

	if cfg.RedisAddr != "" {
		store, err := cache.NewRedisStore(log, cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: "dpp:",
		})
		if err != nil {
			out.Close()
			return out, fmt.Errorf("init redis: %w", err)
		}
		out.Cache = store
	} else {
		log.Warn("REDIS_ADDR not set, using in-process cache")
		out.Cache = cache.NewMemoryStore()
	}

	objCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		out.Close()
		return out, err
	}
	objects, err := objectstore.New(ctx, log, objCfg)
	if err != nil {
		out.Close()
		return out, fmt.Errorf("init object storage: %w", err)
	}
	out.Objects = objects

	sg, err := sendgrid.NewFromEnv(log)
	switch {
	case errors.Is(err, sendgrid.ErrNotConfigured):
		log.Warn("SENDGRID_API_KEY not set, emails are only logged")
		sg = nil
	case err != nil:
		out.Close()
		return out, fmt.Errorf("init sendgrid: %w", err)
	}
	out.Mailer = services.NewMailer(log, sg)
	return out, nil
}

func (c Clients) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.database != nil {
		_ = c.database.Close()
	}
}
