package politeness

import (
	"context"
	"net/http"
	"time"
)

// Options configures a Gate.
type Options struct {
	UserAgent     string
	RespectRobots bool
	Delay         time.Duration
	Client        *http.Client
}

// Gate combines the robots policy with the inter-request limiter.
type Gate struct {
	robots  *Robots
	limiter *Limiter
}

// NewGate builds a gate from options.
func NewGate(opts Options) *Gate {
	return &Gate{
		robots:  NewRobots(opts.Client, opts.UserAgent, opts.RespectRobots),
		limiter: NewLimiter(opts.Delay),
	}
}

// Load reads the site's robots.txt once. Failure is non-fatal: the gate
// keeps allowing everything and the error is only informative.
func (g *Gate) Load(ctx context.Context, baseURL string) error {
	return g.robots.Load(ctx, baseURL)
}

// Allowed reports whether the robots policy permits fetching url.
func (g *Gate) Allowed(url string) bool {
	return g.robots.Allowed(url)
}

// Wait blocks until the minimum interval since the previous fetch elapsed.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// RobotsLoaded reports whether a robots.txt policy is active.
func (g *Gate) RobotsLoaded() bool {
	return g.robots.Loaded()
}
