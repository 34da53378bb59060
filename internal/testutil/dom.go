// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses the provided HTML payload into a goquery document for assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// DataValues returns the data-list rows of a rendered page keyed by label.
func DataValues(doc *goquery.Document) map[string]string {
	out := make(map[string]string)
	doc.Find(".data-list .data-item").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Find(".data-label").Text())
		out[label] = strings.TrimSpace(s.Find(".data-value").Text())
	})
	return out
}
