// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package nav defines the rendering-mode navigation shown on every page.
package nav

// Descriptor describes one rendering-mode destination.
type Descriptor struct {
	Path        string // e.g. "/ssr"
	Label       string // short badge, e.g. "SSR"
	Title       string
	Description string
}

// Item is the view model for a single navigation card.
type Item struct {
	Descriptor
	Active bool
}

// Modes lists the four rendering-mode pages in display order.
var Modes = []Descriptor{
	{Path: "/", Label: "CSR", Title: "Client-Side Rendering", Description: "Default client-side rendering"},
	{Path: "/ssr", Label: "SSR", Title: "Server-Side Rendering", Description: "Dynamic rendering on each request"},
	{Path: "/ssg", Label: "SSG", Title: "Static Site Generation", Description: "Pre-rendered at build time"},
	{Path: "/isr", Label: "ISR", Title: "Incremental Static Regeneration", Description: "Static with periodic updates"},
}

// Build renders Modes with the active state for currentPath.
func Build(currentPath string) []Item {
	return BuildFrom(Modes, currentPath)
}

// BuildFrom renders descriptors in order. An item is active only when its
// path equals currentPath exactly; unknown paths leave every item inactive.
func BuildFrom(descriptors []Descriptor, currentPath string) []Item {
	items := make([]Item, 0, len(descriptors))
	for _, d := range descriptors {
		items = append(items, Item{Descriptor: d, Active: d.Path == currentPath})
	}
	return items
}

// Lookup returns the descriptor registered for path.
func Lookup(path string) (Descriptor, bool) {
	for _, d := range Modes {
		if d.Path == path {
			return d, true
		}
	}
	return Descriptor{}, false
}
