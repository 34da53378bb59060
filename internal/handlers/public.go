// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/middleware"
	"rulecmsdemo/internal/render"
)

// LayoutFunc returns layout data (site metadata, navigation, provider) for
// error pages at path.
type LayoutFunc func(path string) *render.PageData

// Public serves the demo pages through the page server, which decides per
// route whether to render, serve the cached copy or serve it stale.
type Public struct {
	server   *engine.Server
	renderer *render.Renderer
	layout   LayoutFunc
	now      func() time.Time
}

// NewPublic creates a new Public handler group.
func NewPublic(srv *engine.Server, rn *render.Renderer, layout LayoutFunc) *Public {
	return &Public{server: srv, renderer: rn, layout: layout, now: time.Now}
}

// Page serves the page registered for the request path.
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	res, err := p.server.Serve(r.Context(), r.URL.Path)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownRoute) {
			p.NotFound(w, r)
			return
		}
		slog.Error("serve page failed",
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		p.error(w, r, http.StatusInternalServerError, "The page could not be rendered. Please try again.")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", res.Route.CacheControl())
	h.Set(middleware.RenderCacheHeader, string(res.Outcome))
	h.Set("X-Render-Mode", res.Route.Mode)
	if res.Route.Cacheable() {
		h.Set("Age", strconv.Itoa(int(res.Age(p.now())/time.Second)))
		h.Set("Last-Modified", res.GeneratedAt.UTC().Format(http.TimeFormat))
	}
	h.Set("Content-Length", strconv.Itoa(len(res.Body)))

	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(res.Body)
	}
}

// NotFound renders the 404 page with the site navigation.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.error(w, r, http.StatusNotFound, "This page does not exist. Pick a rendering method below.")
}

func (p *Public) error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	var data *render.PageData
	if p.layout != nil {
		data = p.layout(r.URL.Path)
	}
	w.Header().Set("Cache-Control", "no-store")
	p.renderer.Error(w, status, msg, data)
}
