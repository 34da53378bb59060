// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// SecureHeaders adds security-related HTTP headers to every response.
// widgetEndpoint is the RuleCMS origin the pages load the widget runtime
// from; it is allowed in the Content-Security-Policy.
func SecureHeaders(widgetEndpoint string) func(http.Handler) http.Handler {
	csp := contentSecurityPolicy(widgetEndpoint)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// Prevent the browser from MIME-sniffing the Content-Type.
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent embedding in iframes from other origins (clickjacking).
			h.Set("X-Frame-Options", "SAMEORIGIN")

			// Disable the legacy XSS filter (CSP is set below).
			h.Set("X-XSS-Protection", "0")

			// Control what information is sent in the Referer header.
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			h.Set("Permissions-Policy", "interest-cohort=()")
			h.Set("Content-Security-Policy", csp)

			next.ServeHTTP(w, r)
		})
	}
}

// contentSecurityPolicy allows same-origin resources plus the widget origin
// for scripts, API calls and embedded frames.
func contentSecurityPolicy(widgetEndpoint string) string {
	extra := ""
	if u, err := url.Parse(widgetEndpoint); err == nil && u.Scheme != "" && u.Host != "" {
		extra = " " + u.Scheme + "://" + u.Host
	}
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'" + extra,
		"connect-src 'self'" + extra,
		"frame-src 'self'" + extra,
		"img-src 'self' data: https:",
		"style-src 'self' 'unsafe-inline'" + extra,
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")
}
