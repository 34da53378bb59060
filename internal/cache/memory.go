// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryStore is a concurrency-safe in-process page store. It is the
// default when no Valkey instance is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry stored for path.
func (s *MemoryStore) Get(_ context.Context, path string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	if ok {
		// Hand out a copy so callers cannot mutate the cached body.
		e.Body = append([]byte(nil), e.Body...)
	}
	return e, ok
}

// Set stores e under e.Path, replacing any previous entry.
func (s *MemoryStore) Set(_ context.Context, e Entry) {
	e.Body = append([]byte(nil), e.Body...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Path] = e
	slog.Debug("page cached", "path", e.Path, "size", len(s.entries))
}

// Delete removes the entry for path.
func (s *MemoryStore) Delete(_ context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, path)
	slog.Debug("page cache invalidated", "path", path)
}

// Purge clears every entry.
func (s *MemoryStore) Purge(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	slog.Debug("page cache fully cleared")
}
