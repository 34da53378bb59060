// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// render_log.go records page generation events in the database for audit
// and debugging purposes. Each entry captures which page was generated,
// when, why (request/build/revalidate/on-demand) and how long it took.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/policy"
)

// MaxRecent caps the number of events Recent returns.
const MaxRecent = 200

// RenderEvent represents a single page generation.
type RenderEvent struct {
	ID         uuid.UUID `json:"id"`
	Path       string    `json:"path"`
	Mode       string    `json:"mode"`
	RecordID   string    `json:"record_id,omitempty"`
	Trigger    string    `json:"trigger"`
	RenderedAt time.Time `json:"rendered_at"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// RenderLogStore handles render log operations.
type RenderLogStore struct {
	db *sql.DB
}

// NewRenderLogStore creates a new RenderLogStore.
func NewRenderLogStore(db *sql.DB) *RenderLogStore {
	return &RenderLogStore{db: db}
}

// Record stores a render event. Logging is best-effort: failures are
// reported through slog and never returned.
func (s *RenderLogStore) Record(ctx context.Context, ev RenderEvent) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO render_log (id, path, mode, record_id, trigger, rendered_at, duration_ms, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ID, ev.Path, ev.Mode, ev.RecordID, ev.Trigger, ev.RenderedAt, ev.DurationMs, ev.Error)
	if err != nil {
		slog.Warn("failed to log render event",
			"path", ev.Path,
			"trigger", ev.Trigger,
			"error", err,
		)
		return
	}
	slog.Debug("render event logged",
		"path", ev.Path,
		"trigger", ev.Trigger,
		"record_id", ev.RecordID,
	)
}

// Recent returns the most recent render events, newest first. limit is
// clamped to [1, MaxRecent].
func (s *RenderLogStore) Recent(ctx context.Context, limit int) ([]RenderEvent, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, mode, record_id, trigger, rendered_at, duration_ms, error
		FROM render_log
		ORDER BY rendered_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query render log: %w", err)
	}
	defer rows.Close()

	entries := []RenderEvent{}
	for rows.Next() {
		var e RenderEvent
		if err := rows.Scan(&e.ID, &e.Path, &e.Mode, &e.RecordID, &e.Trigger, &e.RenderedAt, &e.DurationMs, &e.Error); err != nil {
			return nil, fmt.Errorf("scan render log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Rendered records a generation reported by the page server.
func (s *RenderLogStore) Rendered(ctx context.Context, ev engine.Event) {
	s.Record(ctx, EventFromEngine(ev))
}

// Served is a no-op; only generations are logged.
func (s *RenderLogStore) Served(policy.Route, engine.Outcome) {}

// EventFromEngine converts a page server event into a log row.
func EventFromEngine(ev engine.Event) RenderEvent {
	e := RenderEvent{
		ID:         uuid.New(),
		Path:       ev.Route.Path,
		Mode:       ev.Route.Mode,
		RecordID:   ev.RecordID,
		Trigger:    string(ev.Trigger),
		RenderedAt: ev.RenderedAt,
		DurationMs: ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	return e
}
