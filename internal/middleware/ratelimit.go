// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// limitKey identifies one client on one cache control endpoint, so a burst
// of revalidations does not also lock the client out of purging.
type limitKey struct {
	ip   string
	path string
}

// RateLimiter bounds cache control calls with a sliding window per client
// and endpoint. Every accepted revalidation costs a page generation and
// every purge forces the next visitors onto synchronous renders.
type RateLimiter struct {
	mu     sync.Mutex
	calls  map[limitKey][]time.Time
	limit  int           // max calls per window
	window time.Duration // sliding window duration
	now    func() time.Time
	stopCh chan struct{}
	stop   sync.Once
}

// NewRateLimiter creates a limiter that accepts limit calls per window for
// each client and endpoint. A background goroutine evicts idle clients.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	rl := &RateLimiter{
		calls:  make(map[limitKey][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.stopCh) })
}

// allow records a call for key when it fits the window. When it does not,
// wait is how long until the oldest counted call leaves the window.
func (rl *RateLimiter) allow(key limitKey) (ok bool, wait time.Duration) {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := live(rl.calls[key], cutoff)
	if len(recent) >= rl.limit {
		rl.calls[key] = recent
		return false, recent[0].Sub(cutoff)
	}
	rl.calls[key] = append(recent, now)
	return true, 0
}

// live drops the timestamps at or before cutoff. Timestamps are appended in
// order, so the survivors are a suffix.
func live(ts []time.Time, cutoff time.Time) []time.Time {
	for i, t := range ts {
		if t.After(cutoff) {
			return ts[i:]
		}
	}
	return ts[:0]
}

// cleanup forgets clients whose calls all left the window.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, ts := range rl.calls {
		if len(live(ts, cutoff)) == 0 {
			delete(rl.calls, key)
		}
	}
}

// Middleware rejects a client that exceeded its allowance on the requested
// endpoint with 429 and a Retry-After in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := limitKey{ip: clientIP(r), path: r.URL.Path}
		ok, wait := rl.allow(key)
		if !ok {
			slog.Warn("cache control rate limited",
				"path", key.path,
				"target", r.URL.Query().Get("path"),
				"ip", key.ip,
				"retry_after", wait,
			)
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfterSeconds rounds wait up to whole seconds, never below one.
func retryAfterSeconds(wait time.Duration) string {
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP picks the leftmost X-Forwarded-For hop, then X-Real-IP, then the
// connection address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
