package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"

	"github.com/podloop/podloop/internal/app"
	"github.com/podloop/podloop/internal/config"
	"github.com/podloop/podloop/internal/db"
	"github.com/podloop/podloop/internal/logger"
	"github.com/podloop/podloop/internal/routes"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the most recent database migration and exit")
	flag.Parse()

	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	if *migrateDown {
		rollback(cfg)
		return
	}

	app, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		panic(err)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	// Periodic lifecycle sweep; the on-demand refresh endpoint shares the
	// same routine.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.LifecycleService.Run(ctx, cfg.SweepInterval)

	handler := routes.SetupRoutes(app)
	slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "sweep_interval", cfg.SweepInterval)

	err = http.ListenAndServe(":"+cfg.Port, handler)
	if err != nil {
		slog.Error("server failed", "error", err)
		panic(err)
	}
}

func rollback(cfg *config.Config) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		panic(err)
	}

	err = db.MigrateDown(database.DB, cfg.DBDriver)
	closeErr := db.Close(database)
	if closeErr != nil {
		slog.Error("failed to close database", "error", closeErr)
	}
	if err != nil {
		slog.Error("rollback failed", "error", err)
		panic(err)
	}
}
