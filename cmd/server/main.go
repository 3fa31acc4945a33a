package main

// @title           Books Catalog API
// @version         1.0
// @description     API for managing the book catalog.

// @contact.name   Sina Niyavarzi
// @contact.email  sinaniya@gmail.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snnyvrz/books-catalog/internal/config"
	"github.com/snnyvrz/books-catalog/internal/db"
	docs "github.com/snnyvrz/books-catalog/internal/docs"
	"github.com/snnyvrz/books-catalog/internal/logger"
	"github.com/snnyvrz/books-catalog/internal/middleware"
	"github.com/snnyvrz/books-catalog/internal/repository"
	"github.com/snnyvrz/books-catalog/internal/server"
)

const appVersion = "0.2.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = "/api"

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error("close database", "error", err)
		}
	}()

	// A store that never comes up leaves the process running degraded so
	// /health stays reachable. Migration is retried once it answers.
	migrated := false
	if err := db.ConnectWithRetry(ctx, database, cfg.DB.ConnectAttempts, cfg.DB.ConnectDelay, log); err != nil {
		log.Error("database unavailable, serving in degraded mode", "error", err)
	} else if err := db.Migrate(database); err != nil {
		log.Error("database migration failed, serving in degraded mode", "error", err)
	} else {
		migrated = true
	}
	if !migrated {
		go func() {
			if err := db.MigrateWhenReady(ctx, database, cfg.DB.ConnectDelay, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("database recovery stopped", "error", err)
			}
		}()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	router := server.NewRouter(server.Deps{
		Config:    cfg,
		Logger:    log,
		Books:     repository.NewGormBookRepository(database, cfg.DB.QueryTimeout),
		Limiter:   limiter,
		StartTime: startTime,
		Version:   appVersion,
	})

	log.Info("books catalog starting",
		"environment", cfg.AppEnv,
		"version", appVersion,
		"db_driver", cfg.DB.Driver,
	)

	return server.New(cfg, router, log).Run(ctx)
}
