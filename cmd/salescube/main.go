package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/aevon-lab/salescube/internal/core/config"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/core/storage/postgres"
	"github.com/aevon-lab/salescube/internal/ingestion"
	"github.com/aevon-lab/salescube/internal/migrations"
	"github.com/aevon-lab/salescube/internal/report"
	"github.com/aevon-lab/salescube/internal/server"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

func main() {
	configPath := flag.String("config", "salescube.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger (level is raised or lowered once config is loaded)
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())
	slog.Info("Loaded config",
		"server", cfg.Server,
		"journal_enabled", cfg.Database.Enabled,
		"codec", cfg.Codec.Kind,
		"reports", len(cfg.ReportLoading.Repository.Definitions()))

	keyring, err := cfg.Codec.Keyring()
	if err != nil {
		slog.Error("Failed to initialize attribute codec", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []warehouse.Option{
		warehouse.WithRatioScale(cfg.Query.RatioScale),
		warehouse.WithMaxCubeAttributes(cfg.Query.MaxCubeAttributes),
	}

	// 2. Initialize Journal (PostgreSQL, optional)
	var db *sql.DB
	if cfg.Database.Enabled {
		db, err = postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}

		// 2.1. Run Database Migrations
		if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}

		journal, err := postgres.NewJournal(db)
		if err != nil {
			slog.Error("Failed to initialize journal", "error", err)
			os.Exit(1)
		}
		defer journal.Close()
		opts = append(opts, warehouse.WithJournal(journal))
	} else {
		slog.Info("Journal disabled by config, warehouse is memory-only")
	}

	// 3. Initialize Warehouse
	wh := warehouse.New(schema.Sales(), keyring, opts...)
	if cfg.Database.Enabled {
		if err := wh.Hydrate(ctx); err != nil {
			slog.Error("Failed to hydrate warehouse from journal", "error", err)
			os.Exit(1)
		}
	}

	// 4. Initialize Ingestion (dimension versions + sales)
	ingestionSvc := ingestion.NewService(wh, cfg.Server.MaxBodySizeMB)

	// 5. Initialize Reports (query API)
	reportSvc := report.NewService(wh, cfg.ReportLoading.Repository)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), db, wh, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	reportSvc.RegisterRoutes(srv.Engine)

	// Signal handler → triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
