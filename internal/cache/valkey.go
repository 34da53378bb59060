// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache provides the page stores used by the page server: an
// in-memory store and a Valkey (Redis-compatible) store shared between
// server instances.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// pageKeyPrefix is the Valkey key prefix for cached pages.
const pageKeyPrefix = "page:"

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", fmt.Sprintf("%s:%s", host, port))
	return client, nil
}

// ValkeyStore keeps rendered pages in Valkey as JSON documents without a
// TTL, so every server instance serves the same build and the same ISR
// generation.
type ValkeyStore struct {
	client *redis.Client
}

// NewValkeyStore creates a store backed by the given client.
func NewValkeyStore(client *redis.Client) *ValkeyStore {
	return &ValkeyStore{client: client}
}

// Key returns the Valkey key used for a request path.
func Key(path string) string {
	return pageKeyPrefix + path
}

// Get retrieves the cached entry for path.
func (s *ValkeyStore) Get(ctx context.Context, path string) (Entry, bool) {
	raw, err := s.client.Get(ctx, Key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false
	}
	if err != nil {
		slog.Warn("page cache get error", "path", path, "error", err)
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		slog.Warn("page cache decode error", "path", path, "error", err)
		return Entry{}, false
	}
	slog.Debug("page cache hit", "path", path)
	return e, true
}

// Set stores e with no expiry.
func (s *ValkeyStore) Set(ctx context.Context, e Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		slog.Warn("page cache encode error", "path", e.Path, "error", err)
		return
	}
	if err := s.client.Set(ctx, Key(e.Path), raw, 0).Err(); err != nil {
		slog.Warn("page cache set error", "path", e.Path, "error", err)
	}
}

// Delete removes a single page.
func (s *ValkeyStore) Delete(ctx context.Context, path string) {
	if err := s.client.Del(ctx, Key(path)).Err(); err != nil {
		slog.Warn("page cache invalidate error", "path", path, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "path", path)
}

// Purge removes all cached pages by scanning for the prefix.
func (s *ValkeyStore) Purge(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
}
