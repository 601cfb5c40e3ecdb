package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to run a site crawl.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Robots  RobotsConfig  `yaml:"robots"`
	Output  OutputConfig  `yaml:"output"`
	DB      SQLConfig     `yaml:"db"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig identifies the single website being crawled.
type SiteConfig struct {
	BaseURL     string `yaml:"base_url"`
	Domain      string `yaml:"domain"`
	DefaultLang string `yaml:"default_lang"`
}

// CrawlConfig controls the frontier limits and request behaviour.
type CrawlConfig struct {
	MaxDepth            int               `yaml:"max_depth"`
	Delay               Duration          `yaml:"delay"`
	UserAgent           string            `yaml:"user_agent"`
	Headers             map[string]string `yaml:"headers"`
	RequestTimeout      Duration          `yaml:"request_timeout"`
	MaxBodyBytes        int64             `yaml:"max_body_bytes"`
	AllowedContentTypes []string          `yaml:"allowed_content_types"`
}

// RobotsConfig configures robots.txt handling.
type RobotsConfig struct {
	Respect bool     `yaml:"respect"`
	Timeout Duration `yaml:"timeout"`
}

// OutputConfig selects where the JSON artifacts are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// SQLConfig describes the optional relational mirror of crawled pages.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	CreateIfMissing bool     `yaml:"create_if_missing"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
}

// Enabled reports whether a relational mirror is configured.
func (c SQLConfig) Enabled() bool {
	return c.Driver != "" && c.DSN != ""
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with the crawler's fixed constants.
func Default() Config {
	return Config{
		Site: SiteConfig{
			BaseURL:     "https://www.motorover.in",
			Domain:      "motorover.in",
			DefaultLang: "en-IN",
		},
		Crawl: CrawlConfig{
			MaxDepth:       10,
			Delay:          DurationFrom(time.Second),
			UserAgent:      "MotoRoverScraper/1.0 (+https://www.motorover.in)",
			Headers:        map[string]string{},
			RequestTimeout: DurationFrom(30 * time.Second),
			MaxBodyBytes:   6 * 1024 * 1024,
			AllowedContentTypes: []string{
				"text/html",
				"application/xhtml+xml",
			},
		},
		Robots: RobotsConfig{
			Respect: true,
			Timeout: DurationFrom(10 * time.Second),
		},
		Output: OutputConfig{
			Directory: "content",
		},
		DB: SQLConfig{
			AutoMigrate: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: false,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		cfg := Default()
		cfg.normalise()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()

	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate enforces required invariants for the crawler configuration.
func (c Config) Validate() error {
	if c.Site.BaseURL == "" {
		return errors.New("site.base_url must be set")
	}
	parsed, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("site.base_url %q missing host", c.Site.BaseURL)
	}
	if c.Site.Domain == "" {
		return errors.New("site.domain must be set")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0 (got %d)", c.Crawl.MaxDepth)
	}
	if c.Crawl.Delay.Duration < 0 {
		return fmt.Errorf("crawl.delay must be >= 0 (got %s)", c.Crawl.Delay)
	}
	if c.Crawl.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("crawl.request_timeout must be > 0 (got %s)", c.Crawl.RequestTimeout)
	}
	if c.Crawl.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawl.max_body_bytes must be > 0 (got %d)", c.Crawl.MaxBodyBytes)
	}
	if len(c.Crawl.AllowedContentTypes) == 0 {
		return errors.New("crawl.allowed_content_types must include at least one value")
	}
	if strings.TrimSpace(c.Crawl.UserAgent) == "" {
		return errors.New("crawl.user_agent must be set")
	}
	if strings.TrimSpace(c.Output.Directory) == "" {
		return errors.New("output.directory must be set")
	}
	if (c.DB.Driver == "") != (c.DB.DSN == "") {
		return errors.New("db.driver and db.dsn must be set together")
	}
	return nil
}

func (c *Config) normalise() {
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	c.Site.Domain = strings.ToLower(strings.TrimSpace(c.Site.Domain))
	if c.Site.Domain == "" && c.Site.BaseURL != "" {
		if parsed, err := url.Parse(c.Site.BaseURL); err == nil {
			c.Site.Domain = strings.ToLower(parsed.Hostname())
		}
	}
	c.Site.Domain = strings.TrimPrefix(c.Site.Domain, "www.")
	c.Site.DefaultLang = strings.TrimSpace(c.Site.DefaultLang)

	c.Crawl.UserAgent = strings.TrimSpace(c.Crawl.UserAgent)
	if c.Crawl.Headers == nil {
		c.Crawl.Headers = make(map[string]string)
	}
	if len(c.Crawl.AllowedContentTypes) > 0 {
		c.Crawl.AllowedContentTypes = dedupeLower(c.Crawl.AllowedContentTypes)
	}
	c.Output.Directory = strings.TrimSpace(c.Output.Directory)
	c.DB.Driver = strings.TrimSpace(c.DB.Driver)
	c.DB.DSN = strings.TrimSpace(c.DB.DSN)
	c.Metrics.ListenAddr = strings.TrimSpace(c.Metrics.ListenAddr)
}

func dedupeLower(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := unique[v]; ok {
			continue
		}
		unique[v] = struct{}{}
		cleaned = append(cleaned, v)
	}
	sort.Strings(cleaned)
	return cleaned
}
