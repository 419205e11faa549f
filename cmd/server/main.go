package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mindrift/backend/internal/api"
	"github.com/mindrift/backend/internal/config"
	"github.com/mindrift/backend/internal/core"
	"github.com/mindrift/backend/internal/jobs"
	"github.com/mindrift/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database store
	dbStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService, err := core.NewLLMService(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	// Initialize services
	chatService := core.NewChatService(dbStore, llmService, logger)
	diaryService := core.NewDiaryService(dbStore, llmService, logger)

	// Daily message purge
	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.PurgeSchedule, jobs.NewMessagePurge(dbStore, logger)); err != nil {
		logger.Fatal("Failed to schedule message purge", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize API handler and router
	apiHandler := api.NewAPIHandler(dbStore, chatService, diaryService, []byte(cfg.JWTSecret), cfg.TokenTTL, logger)
	router := api.NewRouter(apiHandler, cfg.ClientOrigin, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting gracefully")
}
