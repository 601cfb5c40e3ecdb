package crawler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/motoroverpropage/motorover.in/internal/config"
	"github.com/motoroverpropage/motorover.in/internal/frontier"
	"github.com/motoroverpropage/motorover.in/internal/storage"
	"github.com/motoroverpropage/motorover.in/pkg/types"
)

type siteServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func (s *siteServer) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newSiteServer(t *testing.T) *siteServer {
	t.Helper()
	pages := map[string]string{
		"/": `<html><head><title>Home</title></head><body><main>
			<h1>Ride the Himalaya</h1>
			<a href="/about">About</a>
			<a href="/tours/ladakh">Ladakh</a>
			<a href="/private/x">Private</a>
			<a href="/missing">Missing</a>
			<a href="/about#team">Team</a>
			<a href="https://elsewhere.example/page">Offsite</a>
			<a href="/data.json">Data</a>
			<img src="/img/hero.jpg" alt="hero">
		</main></body></html>`,
		"/about": `<html><head><title>About</title></head><body>
			<a href="/">Home</a><a href="/deep/1">Deeper</a>
		</body></html>`,
		"/tours/ladakh": `<html><head><title>Ladakh Explorer</title></head><body><main>
			<p>9 days across the high passes, leaving 14 Jun 2025.</p>
		</main></body></html>`,
		"/deep/1": `<html><head><title>Deep 1</title></head><body><a href="/deep/2">next</a></body></html>`,
		"/deep/2": `<html><head><title>Deep 2</title></head><body><a href="/deep/3">next</a></body></html>`,
		"/deep/3": `<html><head><title>Deep 3</title></head><body>end</body></html>`,
	}

	s := &siteServer{hits: make(map[string]int)}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		switch r.URL.Path {
		case "/robots.txt":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "User-agent: *\nDisallow: /private/\n")
			return
		case "/data.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"ok":true}`)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.Site.BaseURL = baseURL
	cfg.Site.Domain = "127.0.0.1"
	cfg.Crawl.MaxDepth = 2
	cfg.Crawl.Delay = config.DurationFrom(0)
	cfg.Crawl.RequestTimeout = config.DurationFrom(5 * time.Second)
	cfg.Robots.Timeout = config.DurationFrom(5 * time.Second)
	cfg.Output.Directory = "unused"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryStore struct {
	mu      sync.Mutex
	records []storage.PageRecord
}

func (m *memoryStore) SavePage(_ context.Context, rec storage.PageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func TestEngineCrawlsSite(t *testing.T) {
	server := newSiteServer(t)
	metrics := NewMetrics()
	store := &memoryStore{}

	engine, err := NewEngine(testConfig(server.URL), discardLogger(),
		WithHTTPClient(server.Client()),
		WithMetrics(metrics),
		WithPageStores(store),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if engine.RunID() == "" {
		t.Fatal("expected a run id")
	}

	snap, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var urls []string
	for _, page := range snap.Pages {
		urls = append(urls, strings.TrimPrefix(page.URL, server.URL))
	}
	want := []string{"/", "/about", "/tours/ladakh", "/deep/1"}
	if strings.Join(urls, ",") != strings.Join(want, ",") {
		t.Fatalf("expected breadth-first pages %v, got %v", want, urls)
	}

	for _, path := range []string{"/", "/about", "/tours/ladakh", "/deep/1", "/missing", "/data.json", "/robots.txt"} {
		if got := server.count(path); got != 1 {
			t.Errorf("expected %s to be requested once, got %d", path, got)
		}
	}
	for _, path := range []string{"/deep/2", "/private/x"} {
		if got := server.count(path); got != 0 {
			t.Errorf("expected %s never to be requested, got %d", path, got)
		}
	}

	states := engine.StateCounts()
	if states[frontier.StateDone] != 4 || states[frontier.StateFailed] != 2 || states[frontier.StateSkipped] != 1 {
		t.Fatalf("unexpected state counts %v", states)
	}

	if len(snap.Entities.Tours) != 1 || snap.Entities.Tours[0].Name != "Ladakh Explorer" || snap.Entities.Tours[0].Duration != "9 days" {
		t.Fatalf("unexpected tours %+v", snap.Entities.Tours)
	}
	if len(snap.Assets) != 1 || snap.Assets[0].Type != "image" {
		t.Fatalf("unexpected assets %+v", snap.Assets)
	}
	if len(store.records) != 4 {
		t.Fatalf("expected every extracted page persisted, got %d", len(store.records))
	}

	if got := testutil.ToFloat64(metrics.pages.WithLabelValues(outcomeDone)); got != 4 {
		t.Fatalf("expected 4 done pages in metrics, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.pages.WithLabelValues(outcomeSkipped)); got != 1 {
		t.Fatalf("expected 1 skipped page in metrics, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("status")); got != 1 {
		t.Fatalf("expected one status failure, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("not_html")); got != 1 {
		t.Fatalf("expected one not_html failure, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.assets); got != 1 {
		t.Fatalf("expected one asset in metrics, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.frontier); got != 0 {
		t.Fatalf("expected empty frontier gauge, got %v", got)
	}
}

func TestEngineDepthZeroFetchesOnlyRoot(t *testing.T) {
	server := newSiteServer(t)
	cfg := testConfig(server.URL)
	cfg.Crawl.MaxDepth = 0

	engine, err := NewEngine(cfg, discardLogger(), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	snap, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(snap.Pages) != 1 || server.count("/about") != 0 {
		t.Fatalf("expected only the root page, got %d pages", len(snap.Pages))
	}
}

func TestEngineMissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.WriteHeader(http.StatusInternalServerError)
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, `<html><body><a href="/private/x">p</a></body></html>`)
		default:
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, `<html><body>private</body></html>`)
		}
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	engine, err := NewEngine(testConfig(server.URL), logger, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	snap, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(snap.Pages) != 2 {
		t.Fatalf("expected both pages when robots.txt is unavailable, got %d", len(snap.Pages))
	}
	if !strings.Contains(logs.String(), "robots.txt unavailable") {
		t.Fatalf("expected robots warning in logs:\n%s", logs.String())
	}
}

type cancellingFetcher struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingFetcher) Fetch(_ context.Context, url string) (*types.Response, error) {
	c.calls++
	c.cancel()
	body := `<html><head><title>Home</title></head><body><a href="/next">n</a></body></html>`
	return &types.Response{
		URL:         url,
		FinalURL:    url,
		Body:        []byte(body),
		ContentType: "text/html",
		StatusCode:  http.StatusOK,
		FetchedAt:   time.Now(),
	}, nil
}

func TestEngineStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig("https://www.motorover.in")
	cfg.Site.Domain = "motorover.in"
	cfg.Robots.Respect = false
	fetcher := &cancellingFetcher{cancel: cancel}

	engine, err := NewEngine(cfg, discardLogger(), WithFetcher(fetcher))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	snap, err := engine.Run(ctx)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if fetcher.calls != 1 || len(snap.Pages) != 1 {
		t.Fatalf("expected partial snapshot with one page, got %d pages after %d fetches", len(snap.Pages), fetcher.calls)
	}
}

func TestBuildLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := BuildLogger(config.LoggingConfig{Level: "warn", Structured: true}, &buf)
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
	if _, err := BuildLogger(config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSummaryRender(t *testing.T) {
	snap := types.Snapshot{
		Pages:    make([]types.Page, 3),
		Assets:   make([]types.AssetRecord, 5),
		Entities: types.NewEntities(),
	}
	snap.Entities.FAQs = append(snap.Entities.FAQs, types.FAQ{Question: "q", Answer: "a"})
	summary := Summarize(snap, map[frontier.State]int{frontier.StateFailed: 2}, 1500*time.Millisecond)
	if summary.Pages != 3 || summary.Assets != 5 || summary.FAQs != 1 || summary.Failed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	var buf bytes.Buffer
	summary.Render(&buf)
	out := buf.String()
	for _, want := range []string{"Pages scraped", "Failed URLs", "Elapsed", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in rendered summary:\n%s", want, out)
		}
	}

	buf.Reset()
	Summarize(snap, nil, 2*time.Minute+3*time.Second).Render(&buf)
	if out := buf.String(); !strings.Contains(out, "2m3s") || strings.Contains(out, "2M3S") {
		t.Fatalf("expected elapsed footer as %q:\n%s", "2m3s", out)
	}
}
