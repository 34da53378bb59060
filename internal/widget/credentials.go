// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package widget binds the RuleCMS embeddable widget to server-rendered
// pages. It resolves the credentials the widget runtime needs and produces
// the markup that hands them to the runtime in the browser. The widget
// itself is owned by RuleCMS; this package never talks to it directly.
package widget

import "strings"

// Demo defaults used when no override is configured. They are placeholders
// from the public demo and are not expected to authenticate anywhere.
const (
	DefaultPublishedKey = "ab0ea12b-af32-4d61-90b2-6af534f87290---widget-27eec7b6-669a-4ceb-b37c-14fdb7abb743"
	DefaultAppToken     = "lEYWhW85gwxHXj3cyomTsNra6MaXu8Q90aa1Q5zjNNVUdrGko7VYLZtMH5n9FI5E"
	DefaultEndpoint     = "https://rulecms.com"
)

// Overrides holds externally supplied credential values. Any field may be
// empty, in which case the matching default applies.
type Overrides struct {
	PublishedKey string
	AppToken     string
	Endpoint     string
}

// Credentials is the effective, always non-empty credential triple.
type Credentials struct {
	PublishedKey string
	AppToken     string
	Endpoint     string
}

// Defaults returns the built-in demo credentials.
func Defaults() Credentials {
	return Credentials{
		PublishedKey: DefaultPublishedKey,
		AppToken:     DefaultAppToken,
		Endpoint:     DefaultEndpoint,
	}
}

// Resolve picks, per field, the override when it is non-blank and the
// default otherwise. It never fails and performs no format validation.
func Resolve(o Overrides) Credentials {
	return Credentials{
		PublishedKey: orDefault(o.PublishedKey, DefaultPublishedKey),
		AppToken:     orDefault(o.AppToken, DefaultAppToken),
		Endpoint:     orDefault(o.Endpoint, DefaultEndpoint),
	}
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
