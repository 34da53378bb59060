// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// demo server. Pages are registered from the page server's route table so
// the router and the render policies never drift apart.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/handlers"
	"rulecmsdemo/internal/middleware"
)

// Cache control requests allowed per client IP and endpoint per minute.
const revalidateLimit = 10

// Deps bundles what the router wires together.
type Deps struct {
	Server         *engine.Server
	Public         *handlers.Public
	API            *handlers.API
	Metrics        http.Handler // nil disables /metrics
	Static         fs.FS        // nil disables /static/
	WidgetEndpoint string
	Limiter        *middleware.RateLimiter // nil uses a default limiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders(d.WidgetEndpoint))
	r.Use(chimw.Compress(5, "text/html", "text/css", "application/json"))
	r.Use(chimw.GetHead)

	r.Get("/health", healthHandler)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(d.Static))))
	}

	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(revalidateLimit, time.Minute)
	}
	r.Route("/api", func(r chi.Router) {
		r.With(limiter.Middleware).Post("/revalidate", d.API.Revalidate)
		r.With(limiter.Middleware).Delete("/cache", d.API.Invalidate)
		r.Get("/renders", d.API.Renders)
	})

	// Pages, one per registered route.
	for _, route := range d.Server.Routes() {
		r.Get(route.Path, d.Public.Page)
	}
	r.NotFound(d.Public.NotFound)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
