// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the RuleCMS widget demo server.
// It loads configuration, connects to the optional services, pre-renders
// the static pages and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rulecmsdemo/internal/cache"
	"rulecmsdemo/internal/config"
	"rulecmsdemo/internal/content"
	"rulecmsdemo/internal/database"
	"rulecmsdemo/internal/demodata"
	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/handlers"
	"rulecmsdemo/internal/metrics"
	"rulecmsdemo/internal/pages"
	"rulecmsdemo/internal/render"
	"rulecmsdemo/internal/router"
	"rulecmsdemo/internal/store"
	"rulecmsdemo/internal/widget"
	"rulecmsdemo/web"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if !cfg.IsDev() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	creds := cfg.Credentials()
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"widget_endpoint", creds.Endpoint,
		"demo_credentials", creds == widget.Defaults(),
	)

	// The provider is created once and handed to every page explicitly.
	provider := widget.NewProvider(creds)

	catalog, err := content.Load()
	if err != nil {
		slog.Error("failed to load page content", "error", err)
		os.Exit(1)
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Page cache: Valkey when configured so replicas share generated pages,
	// otherwise in-process memory.
	var pageStore cache.Store = cache.NewMemoryStore()
	if cfg.HasValkey() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		pageStore = cache.NewValkeyStore(valkeyClient)
		slog.Info("page cache backed by valkey", "host", cfg.ValkeyHost)
	} else {
		slog.Info("page cache in memory")
	}

	opts := []engine.Option{engine.WithObserver(metrics.New(prometheus.DefaultRegisterer))}

	// Render log (optional, the demo works without a database).
	var renderLog *store.RenderLogStore
	if cfg.HasDatabase() {
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
		renderLog = store.NewRenderLogStore(db)
		opts = append(opts, engine.WithObserver(renderLog))
	} else {
		slog.Warn("database not configured, render log disabled")
	}

	eng := engine.New(pageStore, opts...)
	deps := pages.Deps{
		Catalog:  catalog,
		Renderer: renderer,
		Provider: provider,
		Fetcher:  demodata.NewFetcher(),
	}
	if err := pages.Register(eng, deps); err != nil {
		slog.Error("failed to register pages", "error", err)
		os.Exit(1)
	}

	// Pre-render the static pages, as a build step would.
	buildCtx, cancelBuild := context.WithTimeout(context.Background(), 30*time.Second)
	err = eng.Build(buildCtx)
	cancelBuild()
	if err != nil {
		slog.Error("failed to build static pages", "error", err)
		os.Exit(1)
	}

	if cfg.RevalidateSecret == "" {
		slog.Info("on-demand revalidation disabled, REVALIDATE_SECRET not set")
	}

	// A nil *RenderLogStore must stay a nil interface for the 503 path.
	var lister handlers.RenderLister
	if renderLog != nil {
		lister = renderLog
	}

	r := router.New(router.Deps{
		Server:         eng,
		Public:         handlers.NewPublic(eng, renderer, func(path string) *render.PageData { return pages.Layout(deps, path) }),
		API:            handlers.NewAPI(eng, lister, cfg.RevalidateSecret),
		Metrics:        metrics.Handler(prometheus.DefaultGatherer),
		Static:         web.StaticFS,
		WidgetEndpoint: creds.Endpoint,
	})

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
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

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight regenerations store their pages before the cache closes.
	eng.Wait()

	slog.Info("server stopped gracefully")
}
