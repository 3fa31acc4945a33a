package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/snnyvrz/books-catalog/internal/config"
	"github.com/snnyvrz/books-catalog/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

// Open returns a lazily connecting handle for the configured driver. It
// does not touch the network; use ConnectWithRetry to wait for the store.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableAutomaticPing: true,
		TranslateError:       true,
		Logger:               gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DB.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(cfg.DB.ConnMaxIdleTime)

	return db, nil
}

// ConnectWithRetry pings db up to attempts times, sleeping delay between
// failures. It gives up early when ctx is done.
func ConnectWithRetry(ctx context.Context, db *gorm.DB, attempts int, delay time.Duration, log *slog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = sqlDB.PingContext(pingCtx)
		cancel()
		if err == nil {
			log.Info("database connection established", "attempt", attempt)
			return nil
		}

		log.Warn("db not ready", "attempt", attempt, "max_attempts", attempts, "error", err)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("could not connect to db after %d attempts: %w", attempts, err)
}

// MigrateWhenReady pings db every interval until it answers, then migrates.
// It runs until the schema is in place or ctx is done.
func MigrateWhenReady(ctx context.Context, db *gorm.DB, interval time.Duration, log *slog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := sqlDB.PingContext(pingCtx)
		cancel()
		if err == nil {
			if err = Migrate(db); err == nil {
				log.Info("database recovered, schema migrated")
				return nil
			}
		}
		log.Debug("database still unavailable", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Book{}); err != nil {
		return fmt.Errorf("migrate books: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
