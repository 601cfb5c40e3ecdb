package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motoroverpropage/motorover.in/internal/fetcher"
)

const (
	outcomeDone    = "done"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

// Metrics holds the crawl counters. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	pages         *prometheus.CounterVec
	failures      *prometheus.CounterVec
	assets        prometheus.Counter
	fetchDuration prometheus.Histogram
	frontier      prometheus.Gauge
}

// NewMetrics registers the crawl metrics on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		pages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitecrawler_pages_total",
			Help: "URLs processed by the crawler, by terminal outcome.",
		}, []string{"outcome"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitecrawler_failures_total",
			Help: "Failed pages by failure kind.",
		}, []string{"kind"}),
		assets: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitecrawler_assets_total",
			Help: "Image asset records collected.",
		}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitecrawler_fetch_duration_seconds",
			Help:    "Latency of successful page fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		frontier: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sitecrawler_frontier_size",
			Help: "Entries waiting in the crawl frontier.",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *Metrics) observePage(outcome string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeFailure(kind string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(outcomeFailed).Inc()
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) addAssets(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.assets.Add(float64(n))
}

func (m *Metrics) setFrontier(n int) {
	if m == nil {
		return
	}
	m.frontier.Set(float64(n))
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, fetcher.ErrStatus):
		return "status"
	case errors.Is(err, fetcher.ErrNotHTML):
		return "not_html"
	case errors.Is(err, fetcher.ErrNetwork):
		return "network"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "parse"
	}
}
