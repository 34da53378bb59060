// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package widget

import (
	"bytes"
	"html/template"
	"log/slog"
	"strings"
)

// embedScriptPath is the widget runtime loader served by the RuleCMS endpoint.
const embedScriptPath = "/widget/embed.js"

// Provider carries the app token and endpoint shared by every widget mount
// on a page. Build one at startup and hand it to whatever renders pages;
// mounts created from it inherit its token and endpoint.
type Provider struct {
	creds Credentials
}

// NewProvider creates a provider for the given resolved credentials.
// Blank fields are re-resolved against the defaults.
func NewProvider(creds Credentials) *Provider {
	return &Provider{creds: Resolve(Overrides(creds))}
}

// Credentials returns the provider's effective credentials.
func (p *Provider) Credentials() Credentials {
	return p.creds
}

// Endpoint returns the RuleCMS endpoint without a trailing slash.
func (p *Provider) Endpoint() string {
	return strings.TrimRight(p.creds.Endpoint, "/")
}

// Attrs renders the data attributes placed on the provider root element.
// The layout wraps the page body in exactly one element carrying them.
func (p *Provider) Attrs() template.HTMLAttr {
	return template.HTMLAttr(execute(providerAttrsTmpl, p))
}

// Script renders the widget runtime loader tag.
func (p *Provider) Script() template.HTML {
	return template.HTML(execute(providerScriptTmpl, p.Endpoint()+embedScriptPath))
}

// Variant selects how a mount point expects to be rendered.
type Variant string

const (
	// VariantClient assumes the page is interactive in the browser. The
	// mount is an empty element the runtime fills after load.
	VariantClient Variant = "client"

	// VariantStatic is safe for request-time or build-time rendering with
	// no interactivity: it carries a no-script fallback.
	VariantStatic Variant = "static"
)

// Mount is a single widget placement bound to a provider.
type Mount struct {
	Variant      Variant
	PublishedKey string
	Endpoint     string
}

// Interactive returns a client-only mount. An empty key falls back to the
// provider's resolved published key.
func (p *Provider) Interactive(publishedKey string) Mount {
	return p.mount(VariantClient, publishedKey)
}

// Static returns a mount that renders meaningfully without JavaScript.
// An empty key falls back to the provider's resolved published key.
func (p *Provider) Static(publishedKey string) Mount {
	return p.mount(VariantStatic, publishedKey)
}

func (p *Provider) mount(v Variant, key string) Mount {
	return Mount{
		Variant:      v,
		PublishedKey: orDefault(key, p.creds.PublishedKey),
		Endpoint:     p.Endpoint(),
	}
}

// HTML renders the mount markup.
func (m Mount) HTML() template.HTML {
	return template.HTML(execute(mountTmpl, m))
}

// execute renders tmpl, or returns nothing when it fails so a half-written
// attribute or tag never reaches the page.
func execute(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("widget markup failed", "template", tmpl.Name(), "error", err)
		return ""
	}
	return buf.String()
}

var (
	providerAttrsTmpl = template.Must(template.New("attrs").Parse(
		`data-rulecms-provider data-rulecms-token="{{.Credentials.AppToken}}" data-rulecms-endpoint="{{.Endpoint}}"`))

	providerScriptTmpl = template.Must(template.New("script").Parse(
		`<script src="{{.}}" defer></script>`))

	mountTmpl = template.Must(template.New("mount").Parse(
		`<div class="rulecms-widget" data-rulecms-widget data-mode="{{.Variant}}" data-published-key="{{.PublishedKey}}">` +
			`{{if eq .Variant "static"}}<noscript><p class="rulecms-widget-fallback">This widget needs JavaScript. ` +
			`<a href="{{.Endpoint}}" target="_blank" rel="noopener noreferrer">Open RuleCMS</a></p></noscript>{{end}}` +
			`</div>`))
)
