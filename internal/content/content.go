// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content loads the explanatory copy shown on each demo page. The
// copy is embedded YAML with Markdown bodies, converted to sanitized HTML
// once at load time.
package content

import (
	_ "embed"
	"fmt"
	"html/template"

	"gopkg.in/yaml.v3"

	"rulecmsdemo/internal/markdown"
)

//go:embed pages.yaml
var pagesYAML []byte

// Site holds layout-wide metadata.
type Site struct {
	Title       string
	Description string
	Keywords    []string
	Author      string
	NavHeading  string
	NavIntro    string
}

// Section is an expandable block of explanatory copy.
type Section struct {
	Title string
	Open  bool
	Body  template.HTML
}

// Callout is a highlighted info card.
type Callout struct {
	Title string
	Body  template.HTML
}

// Page is the copy of one rendering-mode page.
type Page struct {
	Key         string
	Badge       string
	Heading     string
	Lead        template.HTML
	DemoHeading string
	Intro       template.HTML
	Callout     *Callout
	DataTitle   string
	DataIntro   string
	Sections    []Section // shown above the widget
	Details     []Section // shown below the widget section
	Footer      string
}

// Catalog is the parsed copy for the whole site.
type Catalog struct {
	Site  Site
	pages map[string]*Page
}

// Page returns the copy for key ("csr", "ssr", "ssg", "isr").
func (c *Catalog) Page(key string) (*Page, bool) {
	p, ok := c.pages[key]
	return p, ok
}

// Keys returns the loaded page keys.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.pages))
	for k := range c.pages {
		keys = append(keys, k)
	}
	return keys
}

type fileSchema struct {
	Site struct {
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Keywords    []string `yaml:"keywords"`
		Author      string   `yaml:"author"`
		NavHeading  string   `yaml:"nav_heading"`
		NavIntro    string   `yaml:"nav_intro"`
	} `yaml:"site"`
	Pages map[string]pageSchema `yaml:"pages"`
}

type pageSchema struct {
	Badge       string          `yaml:"badge"`
	Heading     string          `yaml:"heading"`
	Lead        string          `yaml:"lead"`
	DemoHeading string          `yaml:"demo_heading"`
	Intro       string          `yaml:"intro"`
	Callout     *calloutSchema  `yaml:"callout"`
	DataTitle   string          `yaml:"data_title"`
	DataIntro   string          `yaml:"data_intro"`
	Sections    []sectionSchema `yaml:"sections"`
	Details     []sectionSchema `yaml:"details"`
	Footer      string          `yaml:"footer"`
}

type calloutSchema struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type sectionSchema struct {
	Title string `yaml:"title"`
	Open  bool   `yaml:"open"`
	Body  string `yaml:"body"`
}

// Load parses the embedded page copy.
func Load() (*Catalog, error) {
	return Parse(pagesYAML)
}

// Parse parses page copy from raw YAML.
func Parse(raw []byte) (*Catalog, error) {
	var f fileSchema
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse page content: %w", err)
	}
	if len(f.Pages) == 0 {
		return nil, fmt.Errorf("parse page content: no pages defined")
	}

	c := &Catalog{
		Site: Site{
			Title:       f.Site.Title,
			Description: f.Site.Description,
			Keywords:    f.Site.Keywords,
			Author:      f.Site.Author,
			NavHeading:  f.Site.NavHeading,
			NavIntro:    f.Site.NavIntro,
		},
		pages: make(map[string]*Page, len(f.Pages)),
	}

	for key, ps := range f.Pages {
		p, err := buildPage(key, ps)
		if err != nil {
			return nil, err
		}
		c.pages[key] = p
	}
	return c, nil
}

func buildPage(key string, ps pageSchema) (*Page, error) {
	if ps.Heading == "" {
		return nil, fmt.Errorf("page %s: heading is required", key)
	}

	p := &Page{
		Key:         key,
		Badge:       ps.Badge,
		Heading:     ps.Heading,
		DemoHeading: ps.DemoHeading,
		DataTitle:   ps.DataTitle,
		DataIntro:   ps.DataIntro,
		Footer:      ps.Footer,
	}

	var err error
	if p.Lead, err = convert(key, "lead", ps.Lead); err != nil {
		return nil, err
	}
	if p.Intro, err = convert(key, "intro", ps.Intro); err != nil {
		return nil, err
	}
	if ps.Callout != nil {
		body, err := convert(key, "callout", ps.Callout.Body)
		if err != nil {
			return nil, err
		}
		p.Callout = &Callout{Title: ps.Callout.Title, Body: body}
	}
	if p.Sections, err = convertSections(key, ps.Sections); err != nil {
		return nil, err
	}
	if p.Details, err = convertSections(key, ps.Details); err != nil {
		return nil, err
	}
	return p, nil
}

func convertSections(key string, in []sectionSchema) ([]Section, error) {
	out := make([]Section, 0, len(in))
	for _, s := range in {
		if s.Title == "" {
			return nil, fmt.Errorf("page %s: section without title", key)
		}
		body, err := convert(key, s.Title, s.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, Section{Title: s.Title, Open: s.Open, Body: body})
	}
	return out, nil
}

func convert(key, field, src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	html, err := markdown.ToHTML(src)
	if err != nil {
		return "", fmt.Errorf("page %s: convert %s: %w", key, field, err)
	}
	return html, nil
}
