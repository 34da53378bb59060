// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package web provides the embedded static assets for the demo pages,
// served at /static/ and copied next to exported pages.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var embedded embed.FS

// StaticFS is the static/ directory tree rooted at its contents, so
// "app.css" resolves to static/app.css.
var StaticFS fs.FS = mustSub(embedded, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
