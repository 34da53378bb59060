// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package demodata fabricates the placeholder records each demo page shows
// to make visible when it was rendered. Every fetch returns a fresh record;
// whether a page reuses one is decided by the page server, not here.
package demodata

import (
	"context"
	"encoding/binary"
	"strconv"
	"time"

	"github.com/google/uuid"

	"rulecmsdemo/internal/policy"
)

// TimeLayout matches the ISO-8601 form browsers print for Date values.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is the common view of a demo data record.
type Record interface {
	// ID returns the random identifier fabricated with the record.
	ID() string
	// GeneratedAt returns the clock reading taken when the record was made.
	GeneratedAt() time.Time
	// Fields returns label/value rows in display order.
	Fields() []Field
}

// Field is one labelled value displayed in a data list.
type Field struct {
	Label string
	Value string
}

// SSR is produced on every request of the server-rendered page.
type SSR struct {
	Timestamp time.Time
	RequestID string
	Method    string
}

func (r SSR) ID() string             { return r.RequestID }
func (r SSR) GeneratedAt() time.Time { return r.Timestamp }

func (r SSR) Fields() []Field {
	return []Field{
		{"Request ID:", r.RequestID},
		{"Rendered at:", formatTime(r.Timestamp)},
		{"Method:", r.Method},
	}
}

// SSG is produced once when static pages are built.
type SSG struct {
	BuildTimestamp time.Time
	BuildID        string
	Method         string
	NextBuild      string
}

func (r SSG) ID() string             { return r.BuildID }
func (r SSG) GeneratedAt() time.Time { return r.BuildTimestamp }

func (r SSG) Fields() []Field {
	return []Field{
		{"Build ID:", r.BuildID},
		{"Built at:", formatTime(r.BuildTimestamp)},
		{"Method:", r.Method},
		{"Status:", r.NextBuild},
	}
}

// ISR is produced whenever the incrementally regenerated page is rebuilt.
type ISR struct {
	LastUpdated      time.Time
	DataID           string
	Method           string
	RevalidateAfter  string
	NextRegeneration time.Time
	CacheStatus      string
}

func (r ISR) ID() string             { return r.DataID }
func (r ISR) GeneratedAt() time.Time { return r.LastUpdated }

func (r ISR) Fields() []Field {
	return []Field{
		{"Data ID:", r.DataID},
		{"Last Updated:", formatTime(r.LastUpdated)},
		{"Method:", r.Method},
		{"Revalidates:", r.RevalidateAfter},
		{"Next Update:", formatTime(r.NextRegeneration)},
	}
}

// Fetcher fabricates records from an injectable clock and id source.
type Fetcher struct {
	Now      func() time.Time
	NewID    func() string
	Interval time.Duration // ISR revalidation interval
}

// NewFetcher returns a Fetcher using the wall clock, random short ids and
// the ISR page's interval.
func NewFetcher() *Fetcher {
	return &Fetcher{Now: time.Now, NewID: ShortID, Interval: policy.ISRInterval}
}

// Server returns a record for a request-time render.
func (f *Fetcher) Server(ctx context.Context) (SSR, error) {
	if err := ctx.Err(); err != nil {
		return SSR{}, err
	}
	return SSR{
		Timestamp: f.now(),
		RequestID: f.NewID(),
		Method:    "Server-Side Rendering (SSR)",
	}, nil
}

// Build returns a record for a build-time render.
func (f *Fetcher) Build(ctx context.Context) (SSG, error) {
	if err := ctx.Err(); err != nil {
		return SSG{}, err
	}
	return SSG{
		BuildTimestamp: f.now(),
		BuildID:        f.NewID(),
		Method:         "Static Site Generation (SSG)",
		NextBuild:      "This page was pre-rendered at build time",
	}, nil
}

// Incremental returns a record for an ISR generation. NextRegeneration is
// derived from the same clock reading as LastUpdated.
func (f *Fetcher) Incremental(ctx context.Context) (ISR, error) {
	if err := ctx.Err(); err != nil {
		return ISR{}, err
	}
	interval := f.Interval
	if interval <= 0 {
		interval = policy.ISRInterval
	}
	now := f.now()
	secs := int(interval / time.Second)
	return ISR{
		LastUpdated:      now,
		DataID:           f.NewID(),
		Method:           "Incremental Static Regeneration (ISR)",
		RevalidateAfter:  strconv.Itoa(secs) + " seconds",
		NextRegeneration: now.Add(interval),
		CacheStatus:      "This page regenerates every " + strconv.Itoa(secs) + " seconds when accessed",
	}, nil
}

func (f *Fetcher) now() time.Time {
	return f.Now().UTC()
}

// ShortID returns a short lowercase base36 identifier taken from the random
// bits of a version 4 UUID.
func ShortID() string {
	u := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	if len(s) > 6 {
		s = s[:6]
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
