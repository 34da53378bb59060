// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pages builds the four demo pages. Each page declares its route
// policy, runs its data fetch and composes navigation, explanatory sections
// and one widget mount inside the shared layout.
package pages

import (
	"context"
	"fmt"

	"rulecmsdemo/internal/content"
	"rulecmsdemo/internal/demodata"
	"rulecmsdemo/internal/disclosure"
	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/nav"
	"rulecmsdemo/internal/policy"
	"rulecmsdemo/internal/render"
	"rulecmsdemo/internal/widget"
)

// Route table. Order matches the navigation.
var (
	CSRRoute = policy.Route{Path: "/", Mode: "CSR", Freshness: policy.Default}
	SSRRoute = policy.Route{Path: "/ssr", Mode: "SSR", Freshness: policy.ForceDynamic}
	SSGRoute = policy.Route{Path: "/ssg", Mode: "SSG", Freshness: policy.ForceStatic}
	ISRRoute = policy.Route{Path: "/isr", Mode: "ISR", Freshness: policy.Revalidate, Interval: policy.ISRInterval}
)

// Routes returns the route table.
func Routes() []policy.Route {
	return []policy.Route{CSRRoute, SSRRoute, SSGRoute, ISRRoute}
}

// Deps are the collaborators every page needs. The provider is passed in
// explicitly; pages never look it up.
type Deps struct {
	Catalog  *content.Catalog
	Renderer *render.Renderer
	Provider *widget.Provider
	Fetcher  *demodata.Fetcher
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return fmt.Errorf("pages: content catalog is required")
	case d.Renderer == nil:
		return fmt.Errorf("pages: renderer is required")
	case d.Provider == nil:
		return fmt.Errorf("pages: widget provider is required")
	case d.Fetcher == nil:
		return fmt.Errorf("pages: data fetcher is required")
	}
	return nil
}

// Page is a built page ready to register with the page server.
type Page struct {
	Route  policy.Route
	Render engine.RenderFunc
}

// fetchFunc runs a page's data fetch. A nil fetchFunc means the page shows
// no server data.
type fetchFunc func(ctx context.Context) (demodata.Record, error)

// CSR builds the client-rendered home page. No data is fetched on the
// server and the widget is mounted by the browser runtime.
func CSR(d Deps) (Page, error) {
	return build(d, CSRRoute, "csr", nil, d.Provider.Interactive)
}

// SSR builds the page rendered on every request.
func SSR(d Deps) (Page, error) {
	return build(d, SSRRoute, "ssr", func(ctx context.Context) (demodata.Record, error) {
		return d.Fetcher.Server(ctx)
	}, d.Provider.Static)
}

// SSG builds the page generated once at build time.
func SSG(d Deps) (Page, error) {
	return build(d, SSGRoute, "ssg", func(ctx context.Context) (demodata.Record, error) {
		return d.Fetcher.Build(ctx)
	}, d.Provider.Static)
}

// ISR builds the page regenerated once its interval has elapsed.
func ISR(d Deps) (Page, error) {
	return build(d, ISRRoute, "isr", func(ctx context.Context) (demodata.Record, error) {
		return d.Fetcher.Incremental(ctx)
	}, d.Provider.Static)
}

// All builds the four pages in navigation order.
func All(d Deps) ([]Page, error) {
	builders := []func(Deps) (Page, error){CSR, SSR, SSG, ISR}
	out := make([]Page, 0, len(builders))
	for _, b := range builders {
		p, err := b(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Register builds every page and registers it with srv.
func Register(srv *engine.Server, d Deps) error {
	all, err := All(d)
	if err != nil {
		return err
	}
	for _, p := range all {
		if err := srv.Register(p.Route, p.Render); err != nil {
			return err
		}
	}
	return nil
}

// Layout returns the layout-only data used for error pages at path.
func Layout(d Deps, path string) *render.PageData {
	data := &render.PageData{Path: path, Nav: nav.Build(path), Provider: d.Provider}
	if d.Catalog != nil {
		data.Site = d.Catalog.Site
	}
	return data
}

func build(d Deps, route policy.Route, key string, fetch fetchFunc, mount func(string) widget.Mount) (Page, error) {
	if err := d.validate(); err != nil {
		return Page{}, err
	}
	if err := route.Validate(); err != nil {
		return Page{}, err
	}
	desc, ok := nav.Lookup(route.Path)
	if !ok {
		return Page{}, fmt.Errorf("pages: %s has no navigation entry", route.Path)
	}
	if desc.Label != route.Mode {
		return Page{}, fmt.Errorf("pages: %s renders as %s but navigation labels it %s", route.Path, route.Mode, desc.Label)
	}
	pc, ok := d.Catalog.Page(key)
	if !ok {
		return Page{}, fmt.Errorf("pages: no content for %q", key)
	}

	fn := func(ctx context.Context) (engine.Output, error) {
		data := &render.PageData{
			Site:     d.Catalog.Site,
			Title:    pc.Heading,
			Path:     route.Path,
			Route:    route,
			Copy:     pc,
			Nav:      nav.Build(route.Path),
			Provider: d.Provider,
			Widget:   mount(""),
			Sections: sections(pc.Sections),
			Details:  sections(pc.Details),
		}

		var out engine.Output
		if fetch != nil {
			rec, err := fetch(ctx)
			if err != nil {
				return engine.Output{}, fmt.Errorf("fetch %s data: %w", route.Mode, err)
			}
			data.Record = rec
			data.Data = disclosure.New(pc.DataTitle, "", false)
			out.RecordID = rec.ID()
		}

		body, err := d.Renderer.Bytes("page", data)
		if err != nil {
			return engine.Output{}, err
		}
		out.Body = body
		return out, nil
	}

	return Page{Route: route, Render: fn}, nil
}

// sections creates fresh disclosure state for one render.
func sections(in []content.Section) []*disclosure.Section {
	out := make([]*disclosure.Section, 0, len(in))
	for _, s := range in {
		out = append(out, disclosure.New(s.Title, s.Body, s.Open))
	}
	return out
}
