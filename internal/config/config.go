// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel slog.Level

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache). An empty host disables preview caching.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int
	PreviewTTL     time.Duration

	// API authentication
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	CallbackSecret string
	RateLimit      int // requests per owner per minute, 0 disables

	// Deployment status polling
	PollInterval time.Duration
	PollTimeout  time.Duration
	PollWorkers  int

	// Hosting platforms
	CloudflareToken     string
	CloudflareAccountID string
	VercelToken         string
	VercelTeamID        string
	NetlifyToken        string

	// Model hosts and publisher verification
	HuggingFaceToken   string
	AdSenseAccessToken string

	// Event publishing. An empty URL disables it.
	RabbitMQURL      string
	RabbitMQExchange string

	// S3-compatible snapshot storage. An empty endpoint disables it.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "pagecraft"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "pagecraft"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      envOrDefault("JWT_ISSUER", "pagecraft"),
		JWTAudience:    envOrDefault("JWT_AUDIENCE", "pagecraft-api"),
		CallbackSecret: os.Getenv("DEPLOY_CALLBACK_SECRET"),

		CloudflareToken:     os.Getenv("CLOUDFLARE_API_TOKEN"),
		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		VercelToken:         os.Getenv("VERCEL_TOKEN"),
		VercelTeamID:        os.Getenv("VERCEL_TEAM_ID"),
		NetlifyToken:        os.Getenv("NETLIFY_TOKEN"),

		HuggingFaceToken:   os.Getenv("HUGGINGFACE_TOKEN"),
		AdSenseAccessToken: os.Getenv("ADSENSE_ACCESS_TOKEN"),

		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: envOrDefault("RABBITMQ_EXCHANGE", "pagecraft.events"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "pagecraft-pages"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	var err error
	if cfg.LogLevel, err = envLevel("LOG_LEVEL", slog.LevelInfo); err != nil {
		return nil, err
	}
	if cfg.ValkeyDB, err = envInt("VALKEY_DB", 0); err != nil {
		return nil, err
	}
	if cfg.PreviewTTL, err = envDuration("PREVIEW_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = envInt("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = envDuration("DEPLOY_POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = envDuration("DEPLOY_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PollWorkers, err = envInt("DEPLOY_POLL_WORKERS", 4); err != nil {
		return nil, err
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-jwt-secret"
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.CallbackSecret == "" {
			return nil, fmt.Errorf("DEPLOY_CALLBACK_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 30s, got %q", key, v)
	}
	return d, nil
}

func envLevel(key string, fallback slog.Level) (slog.Level, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return lvl, nil
}
