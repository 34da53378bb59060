// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package disclosure implements the expandable section used to group
// explanatory content. Pages render it as a <details> element, so the
// browser toggles it without any script; Section models the same
// two-state machine on the server.
//
// Toggle and Content exist for renderers that run without a browser and
// for tests that step through the states.
package disclosure

import (
	"html/template"

	"rulecmsdemo/internal/slug"
)

// Section is a titled container that is either collapsed or expanded.
type Section struct {
	ID    string
	Title string
	body  template.HTML
	open  bool
}

// New creates a section. It starts collapsed unless open is true.
func New(title string, body template.HTML, open bool) *Section {
	return &Section{
		ID:    slug.Generate(title),
		Title: title,
		body:  body,
		open:  open,
	}
}

// Toggle flips the section between collapsed and expanded.
func (s *Section) Toggle() {
	s.open = !s.open
}

// Expanded reports whether the content region is visible.
func (s *Section) Expanded() bool {
	return s.open
}

// Content returns the body while expanded and nothing while collapsed.
func (s *Section) Content() template.HTML {
	if !s.open {
		return ""
	}
	return s.body
}

// Body returns the body regardless of state. The <details> markup always
// ships it and leaves visibility to the browser.
func (s *Section) Body() template.HTML {
	return s.body
}
