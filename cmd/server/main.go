package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/analyzer"
	"github.com/BerylCAtieno/document-scanner-api/internal/auth"
	"github.com/BerylCAtieno/document-scanner-api/internal/config"
	"github.com/BerylCAtieno/document-scanner-api/internal/db"
	"github.com/BerylCAtieno/document-scanner-api/internal/repository"
	"github.com/BerylCAtieno/document-scanner-api/internal/router"
	"github.com/BerylCAtieno/document-scanner-api/internal/services"
	"github.com/BerylCAtieno/document-scanner-api/internal/storage"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", "error", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(database); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.NewS3Storage(startupCtx, cfg)
	cancelStartup()
	if err != nil {
		logger.Fatal("Failed to initialize object storage", "error", err)
	}

	var textAnalyzer analyzer.Analyzer
	if cfg.AnalysisEnabled() {
		textAnalyzer = analyzer.NewOpenRouterAnalyzer(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, logger)
	} else {
		logger.Info("OPENROUTER_API_KEY not set, field analysis disabled")
	}

	// Initialize document service
	docRepo := repository.NewRepository(database)
	docService := services.NewService(docRepo, store, textAnalyzer, logger)

	// Setup HTTP router
	tokens := auth.NewTokenService(cfg.JWTSecret)
	handler := router.NewRouter(docService, tokens, cfg, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
