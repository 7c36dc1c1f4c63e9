package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-tracker-go/internal/api"
	"crypto-tracker-go/internal/coingecko"
	"crypto-tracker-go/internal/config"
	"crypto-tracker-go/internal/database"
	"crypto-tracker-go/internal/logger"
	"crypto-tracker-go/internal/portfolio"
	"crypto-tracker-go/internal/pricecache"
	"crypto-tracker-go/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Responses carry decimals as bare JSON numbers, matching the
	// documented output contract.
	decimal.MarshalJSONWithoutQuotes = true

	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize CoinGecko client and verify connectivity
	oracle := coingecko.NewClient(&cfg.CoinGecko, log)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 15*time.Second)
	if err := oracle.Ping(pingCtx); err != nil {
		cancelPing()
		log.Fatal("Failed to connect to CoinGecko API", zap.Error(err))
	}
	cancelPing()
	log.Info("Successfully connected to CoinGecko API.")

	// Wire the valuation pipeline: repository -> cache-backed quotes -> analyzer
	cache := pricecache.NewCache(&cfg.Cache, oracle, log)
	repo := repository.NewTradeRepository(db)
	analyzer := portfolio.NewAnalyzer(cache, log)

	server := api.NewServer(cfg.Server.Port, repo, oracle, analyzer, cfg.Analysis.PercentPrecision, log)
	server.Start()

	// Wait for shutdown signal
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server cleanly", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
