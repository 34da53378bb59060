// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package export writes the cacheable pages to a directory so they can be
// served by any static host, and optionally publishes them to object
// storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"rulecmsdemo/internal/engine"
)

// ManifestFile is the name of the manifest written next to the pages.
const ManifestFile = "manifest.json"

// AssetDir is the directory, relative to the export root, that static
// assets are copied into. Pages reference them as /static/<name>.
const AssetDir = "static"

// Uploader publishes exported files. *storage.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, key, contentType, cacheControl string, body io.Reader, size int64) error
	FileURL(key string) string
}

// Page describes one exported page.
type Page struct {
	Path        string    `json:"path"`
	File        string    `json:"file"`
	Mode        string    `json:"mode"`
	Freshness   string    `json:"freshness"`
	GeneratedAt time.Time `json:"generated_at"`
	RecordID    string    `json:"record_id,omitempty"`
	Size        int       `json:"size"`
	URL         string    `json:"url,omitempty"`
}

// Manifest lists every exported page.
type Manifest struct {
	ExportedAt time.Time `json:"exported_at"`
	Pages      []Page    `json:"pages"`
}

// Exporter builds and writes pages.
type Exporter struct {
	srv      *engine.Server
	dir      string
	uploader Uploader
	assets   fs.FS
	now      func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithUploader publishes every written file through u.
func WithUploader(u Uploader) Option {
	return func(e *Exporter) { e.uploader = u }
}

// WithAssets copies every file in assets under AssetDir.
func WithAssets(assets fs.FS) Option {
	return func(e *Exporter) { e.assets = assets }
}

// WithClock overrides the clock used for the manifest timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New creates an Exporter writing into dir.
func New(srv *engine.Server, dir string, opts ...Option) *Exporter {
	e := &Exporter{srv: srv, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileKey maps a route path to the relative file that serves it:
// "/" becomes "index.html", "/ssg" becomes "ssg/index.html".
func FileKey(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return "index.html"
	}
	return p + "/index.html"
}

// Run builds every cacheable route and writes it to disk. Routes rendered
// per request are skipped; they cannot be served as static files.
func (e *Exporter) Run(ctx context.Context) (Manifest, error) {
	if err := e.srv.Build(ctx); err != nil {
		return Manifest{}, err
	}

	m := Manifest{ExportedAt: e.now().UTC(), Pages: []Page{}}
	for _, r := range e.srv.Routes() {
		if !r.Cacheable() {
			slog.Info("export skipped page rendered per request", "path", r.Path, "freshness", r.Freshness.String())
			continue
		}
		entry, ok := e.srv.Snapshot(ctx, r.Path)
		if !ok {
			return Manifest{}, fmt.Errorf("export %s: no snapshot after build", r.Path)
		}

		key := FileKey(r.Path)
		if err := e.write(key, entry.Body); err != nil {
			return Manifest{}, err
		}

		p := Page{
			Path:        r.Path,
			File:        key,
			Mode:        r.Mode,
			Freshness:   r.Freshness.String(),
			GeneratedAt: entry.GeneratedAt,
			RecordID:    entry.RecordID,
			Size:        len(entry.Body),
		}
		if e.uploader != nil {
			if err := e.uploader.Upload(ctx, key, "text/html; charset=utf-8", r.CacheControl(), bytes.NewReader(entry.Body), int64(len(entry.Body))); err != nil {
				return Manifest{}, err
			}
			p.URL = e.uploader.FileURL(key)
		}
		m.Pages = append(m.Pages, p)
		slog.Info("page exported", "path", r.Path, "file", key, "bytes", p.Size)
	}

	if err := e.copyAssets(ctx); err != nil {
		return Manifest{}, err
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	if err := e.write(ManifestFile, raw); err != nil {
		return Manifest{}, err
	}
	if e.uploader != nil {
		if err := e.uploader.Upload(ctx, ManifestFile, "application/json", "no-cache", bytes.NewReader(raw), int64(len(raw))); err != nil {
			return Manifest{}, err
		}
	}
	return m, nil
}

func (e *Exporter) copyAssets(ctx context.Context) error {
	if e.assets == nil {
		return nil
	}
	return fs.WalkDir(e.assets, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		body, err := fs.ReadFile(e.assets, name)
		if err != nil {
			return fmt.Errorf("read asset %s: %w", name, err)
		}
		key := path.Join(AssetDir, name)
		if err := e.write(key, body); err != nil {
			return err
		}
		if e.uploader == nil {
			return nil
		}
		ct := mime.TypeByExtension(path.Ext(name))
		if ct == "" {
			ct = "application/octet-stream"
		}
		return e.uploader.Upload(ctx, key, ct, "public, max-age=3600", bytes.NewReader(body), int64(len(body)))
	})
}

func (e *Exporter) write(key string, body []byte) error {
	target := filepath.Join(e.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
