// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/store"
)

// RevalidateSecretHeader carries the shared secret for on-demand
// revalidation.
const RevalidateSecretHeader = "X-Revalidate-Secret"

// defaultRenderLimit is used when /api/renders has no limit parameter.
const defaultRenderLimit = 50

// RenderLister lists recent render events. *store.RenderLogStore
// implements it.
type RenderLister interface {
	Recent(ctx context.Context, limit int) ([]store.RenderEvent, error)
}

// API groups the JSON endpoints.
type API struct {
	server  *engine.Server
	renders RenderLister
	secret  string
}

// NewAPI creates the API handler group. renders may be nil when no
// database is configured. An empty secret disables on-demand revalidation.
func NewAPI(srv *engine.Server, renders RenderLister, secret string) *API {
	return &API{server: srv, renders: renders, secret: secret}
}

// revalidateResponse is returned after a successful revalidation.
type revalidateResponse struct {
	Revalidated bool      `json:"revalidated"`
	Path        string    `json:"path"`
	GeneratedAt time.Time `json:"generated_at"`
	RecordID    string    `json:"record_id,omitempty"`
}

// Revalidate regenerates a cached page immediately.
// POST /api/revalidate?path=/isr with the X-Revalidate-Secret header.
func (a *API) Revalidate(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r) {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}

	entry, err := a.server.Revalidate(r.Context(), path)
	switch {
	case errors.Is(err, engine.ErrUnknownRoute), errors.Is(err, engine.ErrNotCacheable):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("on-demand revalidation failed", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "revalidation failed")
		return
	}

	slog.Info("page revalidated on demand", "path", path, "record_id", entry.RecordID)
	writeJSON(w, http.StatusOK, revalidateResponse{
		Revalidated: true,
		Path:        path,
		GeneratedAt: entry.GeneratedAt,
		RecordID:    entry.RecordID,
	})
}

// invalidateResponse is returned after cached pages were dropped.
type invalidateResponse struct {
	Invalidated bool   `json:"invalidated"`
	Path        string `json:"path,omitempty"`
	Purged      bool   `json:"purged,omitempty"`
}

// Invalidate drops cached pages so the next request renders them afresh.
// DELETE /api/cache?path=/ssg drops one page; DELETE /api/cache purges all.
func (a *API) Invalidate(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r) {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		a.server.Purge(r.Context())
		writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: true, Purged: true})
		return
	}

	err := a.server.Invalidate(r.Context(), path)
	if errors.Is(err, engine.ErrUnknownRoute) || errors.Is(err, engine.ErrNotCacheable) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: true, Path: path})
}

// authorize checks the shared secret and writes the rejection itself.
func (a *API) authorize(w http.ResponseWriter, r *http.Request) bool {
	if a.secret == "" {
		writeError(w, http.StatusNotFound, "on-demand revalidation is disabled")
		return false
	}
	given := r.Header.Get(RevalidateSecretHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(a.secret)) != 1 {
		slog.Warn("cache control rejected: bad secret", "path", r.URL.Path, "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid revalidation secret")
		return false
	}
	return true
}

// Renders lists recent page generations from the render log.
// GET /api/renders?limit=N
func (a *API) Renders(w http.ResponseWriter, r *http.Request) {
	if a.renders == nil {
		writeError(w, http.StatusServiceUnavailable, "render log is disabled")
		return
	}

	limit := defaultRenderLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := a.renders.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("list render events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not read render log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
