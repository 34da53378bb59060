// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine is the page server. It owns the route table and decides,
// per request, whether a page is rendered, served from the page cache, or
// served stale while a fresh copy is generated in the background.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"rulecmsdemo/internal/cache"
	"rulecmsdemo/internal/policy"
)

var (
	// ErrUnknownRoute is returned for paths with no registered page.
	ErrUnknownRoute = errors.New("unknown route")

	// ErrNotCacheable is returned when revalidating a route that is never cached.
	ErrNotCacheable = errors.New("route is not cacheable")
)

// DefaultRegenerateTimeout bounds a page generation.
const DefaultRegenerateTimeout = 30 * time.Second

// Output is what a page renderer produces.
type Output struct {
	Body     []byte
	RecordID string // demo record shown on the page, empty if none
}

// RenderFunc renders one page.
type RenderFunc func(ctx context.Context) (Output, error)

// Outcome describes how a response was produced.
type Outcome string

const (
	OutcomeHit     Outcome = "HIT"     // served from cache, fresh
	OutcomeMiss    Outcome = "MISS"    // nothing cached, rendered now and stored
	OutcomeStale   Outcome = "STALE"   // served from cache, regeneration started
	OutcomeDynamic Outcome = "DYNAMIC" // force-dynamic, rendered now
	OutcomeBypass  Outcome = "BYPASS"  // default policy, rendered now, never cached
)

// Trigger describes why a page was generated.
type Trigger string

const (
	TriggerRequest    Trigger = "request"
	TriggerBuild      Trigger = "build"
	TriggerRevalidate Trigger = "revalidate"
	TriggerOnDemand   Trigger = "on-demand"
)

// Event reports a single page generation.
type Event struct {
	Route      policy.Route
	Trigger    Trigger
	RecordID   string
	RenderedAt time.Time
	Duration   time.Duration
	Err        error
}

// Observer is notified about generations and served responses. The render
// log and the metrics collector implement it.
type Observer interface {
	Rendered(ctx context.Context, ev Event)
	Served(route policy.Route, outcome Outcome)
}

// Result is a served page.
type Result struct {
	Route       policy.Route
	Body        []byte
	Outcome     Outcome
	GeneratedAt time.Time
}

// Age returns how long ago the body was generated.
func (r Result) Age(now time.Time) time.Duration {
	if age := now.Sub(r.GeneratedAt); age > 0 {
		return age
	}
	return 0
}

type page struct {
	route  policy.Route
	render RenderFunc
}

// Server applies each route's freshness policy.
type Server struct {
	store     cache.Store
	now       func() time.Time
	timeout   time.Duration
	observers []Observer

	mu     sync.RWMutex
	pages  map[string]*page
	order  []string
	regens map[string]bool

	group singleflight.Group
	wg    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the wall clock (tests use a simulated one).
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithRegenerateTimeout bounds every page generation, including the
// background regenerations no request waits for.
func WithRegenerateTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a page server backed by store.
func New(store cache.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		now:     time.Now,
		timeout: DefaultRegenerateTimeout,
		pages:   make(map[string]*page),
		regens:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a page. Paths must be unique.
func (s *Server) Register(route policy.Route, render RenderFunc) error {
	if err := route.Validate(); err != nil {
		return err
	}
	if render == nil {
		return fmt.Errorf("route %s: nil render func", route.Path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.pages[route.Path]; dup {
		return fmt.Errorf("route %s: already registered", route.Path)
	}
	s.pages[route.Path] = &page{route: route, render: render}
	s.order = append(s.order, route.Path)
	return nil
}

// Routes returns registered routes in registration order.
func (s *Server) Routes() []policy.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	routes := make([]policy.Route, 0, len(s.order))
	for _, p := range s.order {
		routes = append(routes, s.pages[p].route)
	}
	return routes
}

// Route returns the route registered for path.
func (s *Server) Route(path string) (policy.Route, bool) {
	p, ok := s.lookup(path)
	if !ok {
		return policy.Route{}, false
	}
	return p.route, true
}

func (s *Server) lookup(path string) (*page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[path]
	return p, ok
}

// Serve produces the response body for path according to its policy.
func (s *Server) Serve(ctx context.Context, path string) (Result, error) {
	p, ok := s.lookup(path)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}

	var (
		res Result
		err error
	)
	switch p.route.Freshness {
	case policy.ForceStatic, policy.Revalidate:
		res, err = s.serveCached(ctx, p)
	case policy.ForceDynamic:
		res, err = s.serveFresh(ctx, p, OutcomeDynamic)
	default:
		res, err = s.serveFresh(ctx, p, OutcomeBypass)
	}
	if err != nil {
		return Result{}, err
	}

	for _, o := range s.observers {
		o.Served(p.route, res.Outcome)
	}
	return res, nil
}

func (s *Server) serveFresh(ctx context.Context, p *page, outcome Outcome) (Result, error) {
	e, err := s.render(ctx, p, TriggerRequest)
	if err != nil {
		return Result{}, err
	}
	return Result{Route: p.route, Body: e.Body, Outcome: outcome, GeneratedAt: e.GeneratedAt}, nil
}

func (s *Server) serveCached(ctx context.Context, p *page) (Result, error) {
	e, ok := s.store.Get(ctx, p.route.Path)
	if !ok {
		e, err := s.generate(ctx, p, TriggerRequest)
		if err != nil {
			return Result{}, err
		}
		return Result{Route: p.route, Body: e.Body, Outcome: OutcomeMiss, GeneratedAt: e.GeneratedAt}, nil
	}

	res := Result{Route: p.route, Body: e.Body, Outcome: OutcomeHit, GeneratedAt: e.GeneratedAt}
	if p.route.Stale(e.GeneratedAt, s.now()) {
		res.Outcome = OutcomeStale
		s.regenerateAsync(p)
	}
	return res, nil
}

// regenerateAsync starts at most one background regeneration per path.
func (s *Server) regenerateAsync(p *page) {
	s.mu.Lock()
	if s.regens[p.route.Path] {
		s.mu.Unlock()
		return
	}
	s.regens[p.route.Path] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.regens, p.route.Path)
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if _, err := s.generate(ctx, p, TriggerRevalidate); err != nil {
			// The stale entry stays in place and the next request retries.
			slog.Warn("background regeneration failed", "path", p.route.Path, "error", err)
		}
	}()
}

// generate renders p and stores the result. Concurrent generations of the
// same path share one render. The shared render runs on a context detached
// from the caller and bounded by the server timeout, so a caller that gives
// up only abandons its own wait and never fails the others.
func (s *Server) generate(ctx context.Context, p *page, trigger Trigger) (cache.Entry, error) {
	ch := s.group.DoChan(p.route.Path, func() (any, error) {
		s.wg.Add(1)
		defer s.wg.Done()

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		e, err := s.render(rctx, p, trigger)
		if err != nil {
			return cache.Entry{}, err
		}
		s.store.Set(rctx, e)
		return e, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return cache.Entry{}, res.Err
		}
		return res.Val.(cache.Entry), nil
	case <-ctx.Done():
		return cache.Entry{}, fmt.Errorf("generate %s: %w", p.route.Path, ctx.Err())
	}
}

func (s *Server) render(ctx context.Context, p *page, trigger Trigger) (cache.Entry, error) {
	start := s.now()
	out, err := p.render(ctx)
	ev := Event{
		Route:      p.route,
		Trigger:    trigger,
		RecordID:   out.RecordID,
		RenderedAt: start,
		Duration:   s.now().Sub(start),
		Err:        err,
	}
	for _, o := range s.observers {
		o.Rendered(ctx, ev)
	}
	if err != nil {
		return cache.Entry{}, fmt.Errorf("render %s: %w", p.route.Path, err)
	}

	slog.Debug("page rendered",
		"path", p.route.Path,
		"freshness", p.route.Freshness.String(),
		"trigger", string(trigger),
		"record_id", out.RecordID,
	)
	return cache.Entry{
		Path:        p.route.Path,
		Body:        out.Body,
		GeneratedAt: start,
		RecordID:    out.RecordID,
	}, nil
}

// Build generates every cacheable route, replacing whatever is stored.
// Static routes are never regenerated afterwards except by another Build
// or an on-demand revalidation.
func (s *Server) Build(ctx context.Context) error {
	for _, r := range s.Routes() {
		if !r.Cacheable() {
			continue
		}
		p, _ := s.lookup(r.Path)
		if _, err := s.generate(ctx, p, TriggerBuild); err != nil {
			return fmt.Errorf("build: %w", err)
		}
		slog.Info("page built", "path", r.Path, "freshness", r.Freshness.String())
	}
	return nil
}

// Revalidate regenerates a cacheable route immediately.
func (s *Server) Revalidate(ctx context.Context, path string) (cache.Entry, error) {
	p, ok := s.lookup(path)
	if !ok {
		return cache.Entry{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}
	if !p.route.Cacheable() {
		return cache.Entry{}, fmt.Errorf("%w: %s", ErrNotCacheable, path)
	}
	return s.generate(ctx, p, TriggerOnDemand)
}

// Invalidate drops the stored page for a cacheable route. The next request
// renders it synchronously and reports a miss.
func (s *Server) Invalidate(ctx context.Context, path string) error {
	p, ok := s.lookup(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}
	if !p.route.Cacheable() {
		return fmt.Errorf("%w: %s", ErrNotCacheable, path)
	}
	s.store.Delete(ctx, path)
	slog.Info("page invalidated", "path", path)
	return nil
}

// Purge drops every stored page, including pages of routes that are no
// longer registered but still sit in a shared store.
func (s *Server) Purge(ctx context.Context) {
	s.store.Purge(ctx)
	slog.Info("page cache purged")
}

// Snapshot returns the stored entry for path without generating anything.
func (s *Server) Snapshot(ctx context.Context, path string) (cache.Entry, bool) {
	return s.store.Get(ctx, path)
}

// Wait blocks until background regenerations finish.
func (s *Server) Wait() {
	s.wg.Wait()
}
