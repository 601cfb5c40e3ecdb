package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Site.Domain != "motorover.in" {
		t.Fatalf("expected domain motorover.in, got %q", cfg.Site.Domain)
	}
	if cfg.Crawl.MaxDepth != 10 {
		t.Fatalf("expected max depth 10, got %d", cfg.Crawl.MaxDepth)
	}
	if cfg.Crawl.Delay.Duration != time.Second {
		t.Fatalf("expected 1s delay, got %s", cfg.Crawl.Delay)
	}
}

func TestLoadFromReader(t *testing.T) {
	raw := `
site:
  base_url: "https://www.Example.com/"
  domain: ""
crawl:
  max_depth: 2
  delay: 250ms
  request_timeout: 5
  allowed_content_types: ["TEXT/HTML", "text/html"]
logging:
  level: debug
`
	cfg, err := LoadFromReader(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Site.BaseURL != "https://www.Example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Site.BaseURL)
	}
	if cfg.Site.Domain != "example.com" {
		t.Fatalf("expected domain derived from base url, got %q", cfg.Site.Domain)
	}
	if cfg.Crawl.Delay.Duration != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %s", cfg.Crawl.Delay)
	}
	if cfg.Crawl.RequestTimeout.Duration != 5*time.Second {
		t.Fatalf("expected numeric seconds to decode, got %s", cfg.Crawl.RequestTimeout)
	}
	if len(cfg.Crawl.AllowedContentTypes) != 1 || cfg.Crawl.AllowedContentTypes[0] != "text/html" {
		t.Fatalf("expected deduplicated content types, got %v", cfg.Crawl.AllowedContentTypes)
	}
	if cfg.Crawl.UserAgent == "" {
		t.Fatal("expected default user agent to survive merge")
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("crawl:\n  max_pages: 3\n"))
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative depth", func(c *Config) { c.Crawl.MaxDepth = -1 }},
		{"missing base url", func(c *Config) { c.Site.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Crawl.RequestTimeout = DurationFrom(0) }},
		{"empty user agent", func(c *Config) { c.Crawl.UserAgent = " " }},
		{"dsn without driver", func(c *Config) { c.DB.DSN = "postgres://localhost/x" }},
		{"no content types", func(c *Config) { c.Crawl.AllowedContentTypes = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
