// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package policy describes how fresh each page's output must be. A Route is
// a plain record consumed by the page server; pages declare one instead of
// relying on magic exported constants.
package policy

import (
	"fmt"
	"strconv"
	"time"
)

// Freshness is the data-freshness contract a page asks the server for.
type Freshness int

const (
	// Default applies no special policy: the page renders wherever the
	// server renders it by default, on every request, uncached.
	Default Freshness = iota

	// ForceDynamic regenerates output on every request.
	ForceDynamic

	// ForceStatic generates output once at build and never again until the
	// next build.
	ForceStatic

	// Revalidate serves cached output and regenerates it once Interval has
	// elapsed since the last generation.
	Revalidate
)

// ISRInterval is the revalidation interval used by the ISR demo page.
const ISRInterval = 30 * time.Second

// String returns the name used in logs, metrics and headers.
func (f Freshness) String() string {
	switch f {
	case Default:
		return "default"
	case ForceDynamic:
		return "force-dynamic"
	case ForceStatic:
		return "force-static"
	case Revalidate:
		return "revalidate"
	default:
		return "freshness(" + strconv.Itoa(int(f)) + ")"
	}
}

// Route binds a path to its freshness contract.
type Route struct {
	Path      string
	Mode      string // short label, e.g. "ISR"
	Freshness Freshness
	Interval  time.Duration // only meaningful for Revalidate
}

// Validate reports configuration mistakes such as a revalidating route
// without a positive interval.
func (r Route) Validate() error {
	if r.Path == "" || r.Path[0] != '/' {
		return fmt.Errorf("route %q: path must start with /", r.Path)
	}
	switch r.Freshness {
	case Default, ForceDynamic, ForceStatic:
		return nil
	case Revalidate:
		if r.Interval <= 0 {
			return fmt.Errorf("route %s: revalidate requires a positive interval", r.Path)
		}
		return nil
	default:
		return fmt.Errorf("route %s: unknown freshness %d", r.Path, r.Freshness)
	}
}

// Cacheable reports whether output for this route is stored between requests.
func (r Route) Cacheable() bool {
	return r.Freshness == ForceStatic || r.Freshness == Revalidate
}

// Stale reports whether output generated at generatedAt must be regenerated
// at now. Only Revalidate routes ever go stale.
func (r Route) Stale(generatedAt, now time.Time) bool {
	if r.Freshness != Revalidate {
		return false
	}
	return !now.Before(generatedAt.Add(r.Interval))
}

// CacheControl returns the Cache-Control header value for responses of
// this route.
func (r Route) CacheControl() string {
	switch r.Freshness {
	case ForceStatic:
		return "s-maxage=31536000, stale-while-revalidate"
	case Revalidate:
		return fmt.Sprintf("s-maxage=%d, stale-while-revalidate", int(r.Interval/time.Second))
	default:
		return "private, no-cache, no-store, max-age=0, must-revalidate"
	}
}
