/*
Package main is the entry point for the Mingle chat server.

It loads configuration, initializes global logging, opens the message history
database, starts the presence broadcaster, sets up the HTTP server, and
handles operating system interrupt signals for a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mingle/internal/app/chat"
	"mingle/internal/app/db"
	"mingle/internal/app/history"
	"mingle/internal/app/presence"
	"mingle/internal/app/storage"
	"mingle/internal/configs"
	"mingle/internal/handler"
	"mingle/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Listen for interrupt signals from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to open message history database")
	}
	defer pool.Close()

	historyStore := history.NewPostgresStore(pool)

	storageService, err := storage.NewService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize attachment storage")
	}

	registry := presence.NewRegistry()

	broadcaster := presence.NewBroadcaster(registry, chat.EncodeOnlineUsers)
	broadcaster.Run()

	messageRouter := chat.NewRouter(historyStore, registry)

	router := handler.Router(&handler.AppDeps{
		Registry: registry,
		Router:   messageRouter,
		History:  historyStore,
		Storage:  storageService,
		Config:   cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Mingle chat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	broadcaster.Shutdown()

	logx.Info("Server gracefully stopped.")
}
