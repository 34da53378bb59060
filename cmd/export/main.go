// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the static export tool. It renders the cacheable demo
// pages once, writes them as plain files and publishes them to S3-compatible
// storage when credentials are configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"rulecmsdemo/internal/cache"
	"rulecmsdemo/internal/config"
	"rulecmsdemo/internal/content"
	"rulecmsdemo/internal/demodata"
	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/export"
	"rulecmsdemo/internal/pages"
	"rulecmsdemo/internal/render"
	"rulecmsdemo/internal/storage"
	"rulecmsdemo/internal/widget"
	"rulecmsdemo/web"
)

const applicationName = "rulecms-export"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	switch err := run(os.Args[1:]); {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(applicationName, pflag.ContinueOnError)
	out := fs.StringP("out", "o", "dist", "directory to write the exported pages to")
	publish := fs.Bool("publish", true, "upload to S3 when S3_ENDPOINT and credentials are set")
	timeout := fs.Duration("timeout", time.Minute, "overall export deadline")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	catalog, err := content.Load()
	if err != nil {
		return fmt.Errorf("load page content: %w", err)
	}
	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	eng := engine.New(cache.NewMemoryStore())
	deps := pages.Deps{
		Catalog:  catalog,
		Renderer: renderer,
		Provider: widget.NewProvider(cfg.Credentials()),
		Fetcher:  demodata.NewFetcher(),
	}
	if err := pages.Register(eng, deps); err != nil {
		return err
	}

	opts := []export.Option{export.WithAssets(web.StaticFS)}
	if *publish {
		client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			return fmt.Errorf("init s3 storage: %w", err)
		}
		if client != nil {
			opts = append(opts, export.WithUploader(client))
			slog.Info("publishing to s3", "endpoint", cfg.S3Endpoint, "bucket", client.Bucket())
		} else {
			slog.Info("s3 storage not configured, writing files only")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	m, err := export.New(eng, *out, opts...).Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("export complete", "dir", *out, "pages", len(m.Pages))
	return nil
}
