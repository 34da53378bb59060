// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strings"

	"rulecmsdemo/internal/widget"
)

// defaultDBPassword is the development password; production refuses it.
const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// RuleCMS widget credential overrides. Empty fields fall back to the
	// demo defaults in widget.Resolve.
	Widget widget.Overrides

	// PostgreSQL connection for the render log. DatabaseURL wins over the
	// individual POSTGRES_* settings.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Valkey (Redis-compatible page cache). Empty host means in-memory.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Shared secret for POST /api/revalidate. Empty disables the endpoint.
	RevalidateSecret string

	// S3-compatible object storage for the static export.
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

		Widget: widget.Overrides{
			PublishedKey: firstEnv("RULECMS_PUBLISHED_KEY", "NEXT_PUBLIC_PUBLISHED_KEY"),
			AppToken:     firstEnv("RULECMS_TOKEN", "NEXT_PUBLIC_RULECMS_TOKEN"),
			Endpoint:     firstEnv("RULECMS_ENDPOINT", "NEXT_PUBLIC_RULECMS_ENDPOINT"),
		},

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("POSTGRES_HOST"),
		DBPort:      envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:      envOrDefault("POSTGRES_USER", "rulecms"),
		DBPassword:  envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:      envOrDefault("POSTGRES_DB", "rulecms_demo"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		RevalidateSecret: os.Getenv("REVALIDATE_SECRET"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "rulecms-demo"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	if cfg.Env == "production" && cfg.DatabaseURL == "" && cfg.DBHost != "" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// Credentials returns the effective widget credentials.
func (c *Config) Credentials() widget.Credentials {
	return widget.Resolve(c.Widget)
}

// HasDatabase reports whether a render log database is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != "" || c.DBHost != ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// HasValkey reports whether the shared page cache is configured.
func (c *Config) HasValkey() bool {
	return c.ValkeyHost != ""
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

// firstEnv returns the first non-blank value among keys. A whitespace-only
// value counts as unset so it cannot hide a later alias.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
