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

	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/ai"
	"github.com/wanasa-app/wanasa/internal/api"
	"github.com/wanasa-app/wanasa/internal/auth"
	"github.com/wanasa-app/wanasa/internal/config"
	"github.com/wanasa-app/wanasa/internal/core"
	"github.com/wanasa-app/wanasa/internal/media"
	"github.com/wanasa-app/wanasa/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	dbStore, err := store.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbStore.Close()

	mediaStore, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		logger.Fatal("failed to initialize media storage", zap.Error(err))
	}

	// The generation client is built once at startup and shared across all
	// concurrent turns.
	generator, composer, err := ai.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize generation backend", zap.Error(err))
	}
	defer generator.Close()

	chatService := core.NewChatService(dbStore, generator, composer, logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	apiHandler := api.NewAPIHandler(dbStore, chatService, tokens, mediaStore, logger)
	router := api.NewRouter(apiHandler, cfg.AllowedHosts)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation calls can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
