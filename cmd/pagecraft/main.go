// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the pagecraft API server.
// It loads configuration, connects to services, starts the deployment
// poller, and serves the HTTP API with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pagecraft/internal/ai"
	"pagecraft/internal/cache"
	"pagecraft/internal/config"
	"pagecraft/internal/database"
	"pagecraft/internal/deploy"
	"pagecraft/internal/events"
	"pagecraft/internal/handlers"
	"pagecraft/internal/middleware"
	"pagecraft/internal/models"
	"pagecraft/internal/poller"
	"pagecraft/internal/projects"
	"pagecraft/internal/revenue"
	"pagecraft/internal/router"
	"pagecraft/internal/storage"
	"pagecraft/internal/store"
)

func main() {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	projectStore := store.NewProjectStore(db)
	templateStore := store.NewTemplateStore(db)

	// Starter templates are part of the product, so they are seeded in
	// every environment. Seeding is a no-op once they exist.
	seeded, err := database.Seed(context.Background(), templateStore)
	if err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	modelAdapters := ai.NewRegistry(map[models.ModelType]ai.AdapterConfig{
		models.ModelTypeHuggingFace: {Token: cfg.HuggingFaceToken},
	})
	deps := projects.Deps{
		Projects:   projectStore,
		Templates:  templateStore,
		Models:     modelAdapters,
		Publishers: revenue.NewAdSense(cfg.AdSenseAccessToken, ""),
	}

	deployers := deploy.NewRegistry(map[models.Platform]deploy.ProviderConfig{
		models.PlatformCloudflarePages: {Token: cfg.CloudflareToken, AccountID: cfg.CloudflareAccountID},
		models.PlatformVercel:          {Token: cfg.VercelToken, TeamID: cfg.VercelTeamID},
		models.PlatformNetlify:         {Token: cfg.NetlifyToken},
	})
	deps.Deployer = deployers
	slog.Info("adapters configured", "models", modelAdapters.Available(), "platforms", deployers.Available())

	// Valkey holds rendered previews (optional, previews render on every
	// request without it).
	if cfg.ValkeyHost != "" {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		previews := cache.NewPreviewCache(valkeyClient, cfg.PreviewTTL)
		if seeded > 0 {
			previews.InvalidateAll(context.Background())
		}
		deps.Cache = previews
	} else {
		slog.Warn("valkey not configured, preview caching disabled")
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			slog.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		deps.Events = publisher
		slog.Info("project events enabled", "exchange", cfg.RabbitMQExchange)
	}

	snapshots, err := storage.New(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if snapshots != nil {
		deps.Snapshots = snapshots
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, NO_CODE snapshots disabled")
	}

	svc := projects.New(deps)

	poll, err := poller.New(svc, deployers, poller.Config{
		Interval: cfg.PollInterval,
		Timeout:  cfg.PollTimeout,
		Workers:  cfg.PollWorkers,
	})
	if err != nil {
		slog.Error("failed to create deployment poller", "error", err)
		os.Exit(1)
	}
	poll.Start()

	routerOpts := router.Options{
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		CallbackSecret: cfg.CallbackSecret,
		Ready:          db.PingContext,
	}
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer limiter.Stop()
		routerOpts.Limiter = limiter
	}
	r := router.New(handlers.New(svc, templateStore), routerOpts)

	// WriteTimeout must cover model validation and deployment starts,
	// which wait on third-party APIs.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := poll.Stop(); err != nil {
		slog.Error("deployment poller shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
}
