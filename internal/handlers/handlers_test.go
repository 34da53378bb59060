// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rulecmsdemo/internal/cache"
	"rulecmsdemo/internal/content"
	"rulecmsdemo/internal/demodata"
	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/pages"
	"rulecmsdemo/internal/policy"
	"rulecmsdemo/internal/render"
	"rulecmsdemo/internal/store"
	"rulecmsdemo/internal/testutil"
	"rulecmsdemo/internal/widget"
)

const testSecret = "s3cret"

type env struct {
	srv    *engine.Server
	clock  *testutil.Clock
	public *Public
	api    *API
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	catalog, err := content.Load()
	if err != nil {
		t.Fatalf("content.Load: %v", err)
	}
	rn, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	deps := pages.Deps{
		Catalog:  catalog,
		Renderer: rn,
		Provider: widget.NewProvider(widget.Defaults()),
		Fetcher:  &demodata.Fetcher{Now: clock.Now, NewID: testutil.Sequence("id"), Interval: policy.ISRInterval},
	}

	srv := engine.New(cache.NewMemoryStore(), engine.WithClock(clock.Now))
	if err := pages.Register(srv, deps); err != nil {
		t.Fatalf("pages.Register: %v", err)
	}

	pub := NewPublic(srv, rn, func(path string) *render.PageData { return pages.Layout(deps, path) })
	pub.now = clock.Now
	return &env{srv: srv, clock: clock, public: pub, api: NewAPI(srv, nil, testSecret)}
}

func (e *env) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.public.Page(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPageHeadersPerPolicy(t *testing.T) {
	e := newEnv(t)
	if err := e.srv.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	e.clock.Advance(5 * time.Second)

	tests := []struct {
		path         string
		outcome      string
		cacheControl string
		age          string
	}{
		{"/", "BYPASS", "private, no-cache, no-store, max-age=0, must-revalidate", ""},
		{"/ssr", "DYNAMIC", "private, no-cache, no-store, max-age=0, must-revalidate", ""},
		{"/ssg", "HIT", "s-maxage=31536000, stale-while-revalidate", "5"},
		{"/isr", "HIT", "s-maxage=30, stale-while-revalidate", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := e.get(tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d", rec.Code)
			}
			if got := rec.Header().Get("X-Render-Cache"); got != tt.outcome {
				t.Errorf("X-Render-Cache: got %q, want %q", got, tt.outcome)
			}
			if got := rec.Header().Get("Cache-Control"); got != tt.cacheControl {
				t.Errorf("Cache-Control: got %q", got)
			}
			if got := rec.Header().Get("Age"); got != tt.age {
				t.Errorf("Age: got %q, want %q", got, tt.age)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type: got %q", ct)
			}

			doc := testutil.ParseHTML(t, rec.Body.Bytes())
			if href, _ := doc.Find(".nav-card-active").Attr("href"); href != tt.path {
				t.Errorf("active nav: got %q", href)
			}
		})
	}
}

func TestPageISRStaleThenFresh(t *testing.T) {
	e := newEnv(t)

	first := e.get("/isr")
	if first.Header().Get("X-Render-Cache") != "MISS" {
		t.Fatalf("first request: got %q", first.Header().Get("X-Render-Cache"))
	}
	firstID := testutil.DataValues(testutil.ParseHTML(t, first.Body.Bytes()))["Data ID:"]

	e.clock.Advance(45 * time.Second)
	stale := e.get("/isr")
	if stale.Header().Get("X-Render-Cache") != "STALE" {
		t.Errorf("stale request: got %q", stale.Header().Get("X-Render-Cache"))
	}
	if stale.Header().Get("Age") != "45" {
		t.Errorf("Age: got %q", stale.Header().Get("Age"))
	}
	if got := testutil.DataValues(testutil.ParseHTML(t, stale.Body.Bytes()))["Data ID:"]; got != firstID {
		t.Errorf("stale response should carry the old data, got %q want %q", got, firstID)
	}

	e.srv.Wait()
	fresh := e.get("/isr")
	if fresh.Header().Get("X-Render-Cache") != "HIT" {
		t.Errorf("after regeneration: got %q", fresh.Header().Get("X-Render-Cache"))
	}
	if got := testutil.DataValues(testutil.ParseHTML(t, fresh.Body.Bytes()))["Data ID:"]; got == firstID {
		t.Error("regenerated page still shows the old data id")
	}
}

func TestPageHead(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.public.Page(rec, httptest.NewRequest(http.MethodHead, "/ssr", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("HEAD response must not carry a body")
	}
	if rec.Header().Get("Content-Length") == "" {
		t.Error("HEAD response should carry Content-Length")
	}
}

func TestPageNotFound(t *testing.T) {
	e := newEnv(t)
	rec := e.get("/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control: got %q", rec.Header().Get("Cache-Control"))
	}
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	if doc.Find(".nav-card").Length() != 4 {
		t.Error("404 page should offer the navigation")
	}
	if doc.Find(".nav-card-active").Length() != 0 {
		t.Error("no nav card should be active on a 404 page")
	}
	if doc.Find("[data-rulecms-provider]").Length() != 1 {
		t.Error("404 page should keep the provider root")
	}
}

func TestPageRenderFailure(t *testing.T) {
	rn, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	srv := engine.New(cache.NewMemoryStore())
	_ = srv.Register(policy.Route{Path: "/ssr", Mode: "SSR", Freshness: policy.ForceDynamic},
		func(context.Context) (engine.Output, error) { return engine.Output{}, errors.New("boom") })

	rec := httptest.NewRecorder()
	NewPublic(srv, rn, nil).Page(rec, httptest.NewRequest(http.MethodGet, "/ssr", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error details must not leak to the client")
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func revalidateRequest(path, secret string) *http.Request {
	target := "/api/revalidate"
	if path != "" {
		target += "?path=" + path
	}
	req := httptest.NewRequest(http.MethodPost, target, nil)
	if secret != "" {
		req.Header.Set(RevalidateSecretHeader, secret)
	}
	return req
}

func TestRevalidate(t *testing.T) {
	e := newEnv(t)
	if err := e.srv.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		secret string
		status int
	}{
		{"missing secret", "/ssg", "", http.StatusUnauthorized},
		{"wrong secret", "/ssg", "nope", http.StatusUnauthorized},
		{"missing path", "", testSecret, http.StatusBadRequest},
		{"unknown path", "/nope", testSecret, http.StatusBadRequest},
		{"not cacheable", "/ssr", testSecret, http.StatusBadRequest},
		{"static page", "/ssg", testSecret, http.StatusOK},
		{"isr page", "/isr", testSecret, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.api.Revalidate(rec, revalidateRequest(tt.path, tt.secret))
			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if rec.Header().Get("Cache-Control") != "no-store" {
				t.Error("API responses must not be cached")
			}
		})
	}
}

func TestRevalidateReplacesStaticPage(t *testing.T) {
	e := newEnv(t)
	if err := e.srv.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	before := testutil.DataValues(testutil.ParseHTML(t, e.get("/ssg").Body.Bytes()))["Build ID:"]

	rec := httptest.NewRecorder()
	e.api.Revalidate(rec, revalidateRequest("/ssg", testSecret))
	body := decode(t, rec)
	if body["revalidated"] != true || body["path"] != "/ssg" {
		t.Errorf("response: %v", body)
	}

	after := testutil.DataValues(testutil.ParseHTML(t, e.get("/ssg").Body.Bytes()))["Build ID:"]
	if after == before {
		t.Errorf("build id unchanged after revalidation: %q", after)
	}
	if body["record_id"] != after {
		t.Errorf("record_id: got %v, want %q", body["record_id"], after)
	}
}

func cacheRequest(path, secret string) *http.Request {
	target := "/api/cache"
	if path != "" {
		target += "?path=" + path
	}
	req := httptest.NewRequest(http.MethodDelete, target, nil)
	if secret != "" {
		req.Header.Set(RevalidateSecretHeader, secret)
	}
	return req
}

func TestInvalidate(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		secret string
		status int
	}{
		{"missing secret", "/ssg", "", http.StatusUnauthorized},
		{"unknown path", "/nope", testSecret, http.StatusBadRequest},
		{"not cacheable", "/", testSecret, http.StatusBadRequest},
		{"one page", "/ssg", testSecret, http.StatusOK},
		{"everything", "", testSecret, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			rec := httptest.NewRecorder()
			e.api.Invalidate(rec, cacheRequest(tt.path, tt.secret))
			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestInvalidateDropsOnePage(t *testing.T) {
	e := newEnv(t)
	if err := e.srv.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec := httptest.NewRecorder()
	e.api.Invalidate(rec, cacheRequest("/ssg", testSecret))
	body := decode(t, rec)
	if body["invalidated"] != true || body["path"] != "/ssg" {
		t.Errorf("response: %v", body)
	}

	if got := e.get("/ssg").Header().Get("X-Render-Cache"); got != "MISS" {
		t.Errorf("/ssg after invalidation: got %q, want MISS", got)
	}
	if got := e.get("/isr").Header().Get("X-Render-Cache"); got != "HIT" {
		t.Errorf("/isr should stay cached, got %q", got)
	}
}

func TestInvalidatePurgesEverything(t *testing.T) {
	e := newEnv(t)
	if err := e.srv.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec := httptest.NewRecorder()
	e.api.Invalidate(rec, cacheRequest("", testSecret))
	if body := decode(t, rec); body["purged"] != true {
		t.Errorf("response: %v", body)
	}

	for _, path := range []string{"/ssg", "/isr"} {
		if got := e.get(path).Header().Get("X-Render-Cache"); got != "MISS" {
			t.Errorf("%s after purge: got %q, want MISS", path, got)
		}
	}
}

func TestRevalidateDisabled(t *testing.T) {
	e := newEnv(t)
	api := NewAPI(e.srv, nil, "")

	rec := httptest.NewRecorder()
	api.Revalidate(rec, revalidateRequest("/ssg", "anything"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

type fakeLister struct {
	events []store.RenderEvent
	err    error
	limit  int
}

func (f *fakeLister) Recent(_ context.Context, limit int) ([]store.RenderEvent, error) {
	f.limit = limit
	return f.events, f.err
}

func TestRenders(t *testing.T) {
	e := newEnv(t)

	t.Run("disabled without database", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.api.Renders(rec, httptest.NewRequest(http.MethodGet, "/api/renders", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status: got %d, want 503", rec.Code)
		}
	})

	t.Run("lists events", func(t *testing.T) {
		lister := &fakeLister{events: []store.RenderEvent{{Path: "/isr", Mode: "ISR", Trigger: "revalidate"}}}
		api := NewAPI(e.srv, lister, testSecret)

		rec := httptest.NewRecorder()
		api.Renders(rec, httptest.NewRequest(http.MethodGet, "/api/renders?limit=5", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d", rec.Code)
		}
		if lister.limit != 5 {
			t.Errorf("limit: got %d, want 5", lister.limit)
		}
		events, _ := decode(t, rec)["events"].([]any)
		if len(events) != 1 {
			t.Fatalf("events: got %d", len(events))
		}
		if ev := events[0].(map[string]any); ev["trigger"] != "revalidate" {
			t.Errorf("event: %v", ev)
		}
	})

	t.Run("default limit", func(t *testing.T) {
		lister := &fakeLister{}
		rec := httptest.NewRecorder()
		NewAPI(e.srv, lister, "").Renders(rec, httptest.NewRequest(http.MethodGet, "/api/renders", nil))
		if lister.limit != defaultRenderLimit {
			t.Errorf("limit: got %d", lister.limit)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, q := range []string{"0", "-3", "abc"} {
			rec := httptest.NewRecorder()
			NewAPI(e.srv, &fakeLister{}, "").Renders(rec, httptest.NewRequest(http.MethodGet, "/api/renders?limit="+q, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: got %d, want 400", q, rec.Code)
			}
		}
	})

	t.Run("store error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewAPI(e.srv, &fakeLister{err: errors.New("db down")}, "").Renders(rec, httptest.NewRequest(http.MethodGet, "/api/renders", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d, want 500", rec.Code)
		}
	})
}
