// Package politeness decides whether and when the crawler may fetch a URL:
// robots.txt rules loaded once per run plus a shared minimum-interval limiter.
package politeness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

const maxRobotsBodyBytes = 512 * 1024

// Robots holds the robots.txt policy for the crawled site.
type Robots struct {
	client    *http.Client
	userAgent string
	respect   bool

	mu    sync.RWMutex
	rules *robotstxt.RobotsData
}

// NewRobots constructs an allow-all policy until Load succeeds.
func NewRobots(client *http.Client, userAgent string, respect bool) *Robots {
	if client == nil {
		client = http.DefaultClient
	}
	return &Robots{client: client, userAgent: userAgent, respect: respect}
}

// Load fetches and parses <base>/robots.txt. Any error leaves the policy at
// allow-all; the error is returned only so the caller can log it.
func (r *Robots) Load(ctx context.Context, baseURL string) error {
	if !r.respect {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	robotsURL := base.Scheme + "://" + base.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return fmt.Errorf("build robots request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return fmt.Errorf("read robots.txt: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.rules = data
	r.mu.Unlock()
	return nil
}

// Allowed reports whether target may be fetched.
func (r *Robots) Allowed(target string) bool {
	if !r.respect {
		return true
	}
	r.mu.RLock()
	rules := r.rules
	r.mu.RUnlock()
	if rules == nil {
		return true
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return rules.TestAgent(path, r.userAgent)
}

// Loaded reports whether a robots.txt policy is in effect.
func (r *Robots) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules != nil
}
