// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the demo pages.
// Every page template is paired with the shared base layout and partials,
// and is executed into a byte slice so the page server can cache it.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"rulecmsdemo/internal/content"
	"rulecmsdemo/internal/demodata"
	"rulecmsdemo/internal/disclosure"
	"rulecmsdemo/internal/nav"
	"rulecmsdemo/internal/policy"
	"rulecmsdemo/internal/widget"
)

//go:embed templates/*.html
var templateFS embed.FS

// sharedTemplates are parsed into every page template.
var sharedTemplates = []string{"templates/base.html", "templates/partials.html"}

// PageData holds all data passed to page templates.
type PageData struct {
	Site     content.Site
	Title    string // <title>, falls back to Site.Title
	Path     string // request path, drives nav highlighting
	Route    policy.Route
	Copy     *content.Page
	Nav      []nav.Item
	Provider *widget.Provider
	Widget   widget.Mount
	Record   demodata.Record // nil when the page shows no data
	Data     *disclosure.Section
	Sections []*disclosure.Section // above the widget
	Details  []*disclosure.Section // below the widget section
	Status   int                   // error pages only
	Message  string                // error pages only
}

// Renderer handles template parsing and execution for the demo pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New parses all page templates from the embedded filesystem. Each page
// template is paired with the base layout.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"navClass": func(active bool) string {
				if active {
					return "nav-card nav-card-active"
				}
				return "nav-card"
			},
			"pageTitle": func(d *PageData) string {
				if d.Title != "" {
					return d.Title
				}
				return d.Site.Title
			},
			"join": strings.Join,
		},
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isShared(name) {
			continue
		}

		files := append(append([]string{}, sharedTemplates...), "templates/"+name)
		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

func isShared(name string) bool {
	for _, s := range sharedTemplates {
		if "templates/"+name == s {
			return true
		}
	}
	return false
}

// Has reports whether a page template called name was parsed.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}

// Execute renders the full layout for page name into w.
func (rn *Renderer) Execute(w io.Writer, name string, data *PageData) error {
	tmpl, ok := rn.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base.html", data)
}

// Bytes renders page name into a new buffer. A failed execution never
// returns partial output.
func (rn *Renderer) Bytes(name string, data *PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := rn.Execute(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Error writes the error page with the given status. Layout data such as
// the provider and site metadata come from data, which may be nil.
func (rn *Renderer) Error(w http.ResponseWriter, status int, message string, data *PageData) {
	if data == nil {
		data = &PageData{}
	}
	d := *data
	d.Status = status
	d.Message = message
	d.Title = fmt.Sprintf("%d %s", status, http.StatusText(status))

	body, err := rn.Bytes("error", &d)
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
