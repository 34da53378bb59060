// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go defines the full-page cache shared by static and incrementally
// regenerated routes. Entries carry the time they were generated so the
// page server can decide staleness itself; stores never expire them.
package cache

import (
	"context"
	"time"
)

// Entry is one rendered page.
type Entry struct {
	Path        string    `json:"path"`
	Body        []byte    `json:"body"`
	GeneratedAt time.Time `json:"generated_at"`
	RecordID    string    `json:"record_id,omitempty"`
}

// Store persists rendered pages keyed by request path. Get reports a miss
// with ok=false; backend failures are logged and surface as misses.
type Store interface {
	Get(ctx context.Context, path string) (Entry, bool)
	Set(ctx context.Context, e Entry)
	Delete(ctx context.Context, path string)
	Purge(ctx context.Context)
}
