package database

import (
	"context"
	"fmt"
	"time"

	"storefront-api/internal/config"
	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	PrimaryDB   *gorm.DB
	SecondaryDB *gorm.DB
	RedisClient *redis.Client
)

// InitDatabase initializes both payment stores and Redis.
// The primary store is required; the secondary store and Redis are optional
// and the service degrades without them.
func InitDatabase(cfg *config.Config) error {
	var err error

	PrimaryDB, err = openStore(cfg.DatabaseURL, "storefront.db", cfg.IsRelease())
	if err != nil {
		return fmt.Errorf("failed to initialize primary store: %w", err)
	}
	logging.Infof("Primary store connected successfully")

	if err := autoMigrate(PrimaryDB, &models.ProjectFile{}, &models.PaymentRecord{}); err != nil {
		return fmt.Errorf("failed to migrate primary store: %w", err)
	}

	SecondaryDB, err = openStore(cfg.SecondaryDatabaseURL, "storefront-mirror.db", cfg.IsRelease())
	if err != nil {
		logging.Warnf("Secondary store unavailable, running without mirror: %v", err)
		SecondaryDB = nil
	} else if err := autoMigrate(SecondaryDB, &models.PaymentRecord{}); err != nil {
		logging.Warnf("Secondary store migration failed, running without mirror: %v", err)
		SecondaryDB = nil
	} else {
		logging.Infof("Secondary store connected successfully")
	}

	if err := initRedis(cfg.RedisURL); err != nil {
		logging.Warnf("Redis unavailable, falling back to in-process guards: %v", err)
		RedisClient = nil
	}

	if !cfg.IsRelease() {
		if err := insertDefaultData(PrimaryDB); err != nil {
			return fmt.Errorf("failed to insert default data: %w", err)
		}
	}

	return nil
}

// openStore opens PostgreSQL when dsn is set, SQLite otherwise
func openStore(dsn, sqliteFile string, release bool) (*gorm.DB, error) {
	level := logger.Info
	if release {
		level = logger.Warn
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	var dialector gorm.Dialector
	if dsn == "" {
		// Fallback to SQLite for development
		logging.Infof("Database URL not set, using SQLite file %s", sqliteFile)
		dialector = sqlite.Open(sqliteFile)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initRedis initializes Redis connection
func initRedis(redisURL string) error {
	if redisURL == "" {
		return fmt.Errorf("REDIS_URL is not set")
	}

	logging.Infof("Connecting to Redis: %s", maskRedisURL(redisURL))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	logging.Infof("Redis connected successfully")
	return nil
}

// maskRedisURL masks sensitive information in Redis URL for logging
func maskRedisURL(url string) string {
	if len(url) > 20 {
		return url[:10] + "***" + url[len(url)-10:]
	}
	return "***"
}

func autoMigrate(db *gorm.DB, dst ...interface{}) error {
	return db.AutoMigrate(dst...)
}

// insertDefaultData seeds a demo batch into an empty catalog
func insertDefaultData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ProjectFile{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []models.ProjectFile{
		{
			Batch:   "B1",
			Type:    models.FileTypeDocumentation,
			Name:    "Project documentation",
			Price:   decimal.NewFromInt(500),
			FileURL: "https://example.com/files/b1-documentation.pdf",
		},
		{
			Batch:   "B1",
			Type:    models.FileTypeDatabase,
			Name:    "Project database",
			Price:   decimal.NewFromInt(1200),
			FileURL: "https://example.com/files/b1-database.sql",
		},
	}
	if err := db.Create(&demo).Error; err != nil {
		return fmt.Errorf("failed to create demo catalog: %w", err)
	}

	logging.Infof("Default data inserted successfully")
	return nil
}

// CloseDatabase closes database connections
func CloseDatabase() error {
	for _, db := range []*gorm.DB{PrimaryDB, SecondaryDB} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logging.Errorf("Failed to close database: %v", err)
			}
		}
	}

	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logging.Errorf("Failed to close Redis: %v", err)
		}
	}

	return nil
}
