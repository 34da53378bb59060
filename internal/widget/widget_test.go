// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package widget

import (
	"bytes"
	"html/template"
	"log/slog"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   Overrides
		want Credentials
	}{
		{
			name: "all empty uses defaults",
			in:   Overrides{},
			want: Defaults(),
		},
		{
			name: "blank values use defaults",
			in:   Overrides{PublishedKey: "  ", AppToken: "\t", Endpoint: " "},
			want: Defaults(),
		},
		{
			name: "all set uses overrides",
			in:   Overrides{PublishedKey: "key-1", AppToken: "tok-1", Endpoint: "https://cms.example"},
			want: Credentials{PublishedKey: "key-1", AppToken: "tok-1", Endpoint: "https://cms.example"},
		},
		{
			name: "fields resolve independently",
			in:   Overrides{AppToken: "tok-2"},
			want: Credentials{PublishedKey: DefaultPublishedKey, AppToken: "tok-2", Endpoint: DefaultEndpoint},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.in)
			if got != tt.want {
				t.Errorf("Resolve(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	for _, v := range []string{"", " ", "x"} {
		c := Resolve(Overrides{PublishedKey: v, AppToken: v, Endpoint: v})
		if c.PublishedKey == "" || c.AppToken == "" || c.Endpoint == "" {
			t.Errorf("Resolve with %q produced an empty field: %+v", v, c)
		}
	}
}

func TestMountFallsBackToProviderKey(t *testing.T) {
	p := NewProvider(Credentials{PublishedKey: "site-key", AppToken: "tok", Endpoint: "https://cms.example/"})

	m := p.Interactive("")
	if m.PublishedKey != "site-key" {
		t.Errorf("PublishedKey: got %q, want %q", m.PublishedKey, "site-key")
	}
	if m.Endpoint != "https://cms.example" {
		t.Errorf("Endpoint: got %q, want trailing slash trimmed", m.Endpoint)
	}

	m = p.Static("page-key")
	if m.PublishedKey != "page-key" {
		t.Errorf("PublishedKey: got %q, want %q", m.PublishedKey, "page-key")
	}
}

func TestNewProviderFillsBlankCredentials(t *testing.T) {
	p := NewProvider(Credentials{})
	if p.Credentials() != Defaults() {
		t.Errorf("Credentials: got %+v, want defaults", p.Credentials())
	}
}

func TestMountHTML(t *testing.T) {
	p := NewProvider(Defaults())

	t.Run("client variant has no fallback", func(t *testing.T) {
		html := string(p.Interactive("").HTML())
		if !strings.Contains(html, `data-mode="client"`) {
			t.Errorf("missing client mode marker: %s", html)
		}
		if !strings.Contains(html, `data-published-key="`+DefaultPublishedKey+`"`) {
			t.Errorf("missing published key: %s", html)
		}
		if strings.Contains(html, "<noscript>") {
			t.Errorf("client variant should not render a noscript fallback: %s", html)
		}
	})

	t.Run("static variant has fallback", func(t *testing.T) {
		html := string(p.Static("").HTML())
		if !strings.Contains(html, `data-mode="static"`) {
			t.Errorf("missing static mode marker: %s", html)
		}
		if !strings.Contains(html, "<noscript>") {
			t.Errorf("static variant should render a noscript fallback: %s", html)
		}
	})

	t.Run("key is escaped", func(t *testing.T) {
		html := string(p.Static(`"><script>x</script>`).HTML())
		if strings.Contains(html, "<script>x</script>") {
			t.Errorf("published key was not escaped: %s", html)
		}
	})
}

func TestProviderMarkup(t *testing.T) {
	p := NewProvider(Credentials{AppToken: "tok-9", Endpoint: "https://cms.example"})

	attrs := string(p.Attrs())
	if !strings.Contains(attrs, `data-rulecms-token="tok-9"`) {
		t.Errorf("Attrs missing token: %s", attrs)
	}
	if !strings.Contains(attrs, `data-rulecms-endpoint="https://cms.example"`) {
		t.Errorf("Attrs missing endpoint: %s", attrs)
	}

	script := string(p.Script())
	if !strings.Contains(script, `src="https://cms.example/widget/embed.js"`) {
		t.Errorf("Script src: got %s", script)
	}
}

func TestExecuteDropsPartialMarkup(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	broken := template.Must(template.New("broken").Parse(`<p data-x="partial">{{.Missing}}</p>`))
	if got := execute(broken, struct{}{}); got != "" {
		t.Errorf("failed template should render nothing, got %q", got)
	}
	if !strings.Contains(logs.String(), "widget markup failed") || !strings.Contains(logs.String(), "template=broken") {
		t.Errorf("failure was not logged: %s", logs.String())
	}
}
