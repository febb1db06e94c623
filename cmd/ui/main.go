package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/api"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/database"
	"trade-journal-go/internal/date"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/pricefeed"
	"trade-journal-go/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	var defaults models.PortfolioSettings
	defaults.InitialBalance = cfg.Journal.InitialBalance
	if cfg.Journal.StartDate != "" {
		if defaults.StartDate, err = date.Parse(cfg.Journal.StartDate); err != nil {
			log.Fatal("Invalid journal.start_date", zap.Error(err))
		}
	}

	// Connect to the database
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := journal.Open(ctx, store.NewKVStore(db), defaults, log)
	if err != nil {
		log.Fatal("Failed to open journal", zap.Error(err))
	}
	defer svc.Close()

	prices := pricefeed.NewClient(&cfg.PriceFeed, cfg.Journal.QuoteCurrency, log)
	server := api.NewServer(cfg.Server.Port, api.NewAPIHandler(log, svc, prices), log)
	errc := server.Start()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, gracefully shutting down...")
	case err := <-errc:
		if err != nil {
			log.Error("Web server failed", zap.Error(err))
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop web server", zap.Error(err))
	}
}
