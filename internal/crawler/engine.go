// Package crawler drives a single-domain breadth-first crawl: pop a frontier
// entry, ask the politeness gate, fetch, extract, classify, enqueue the
// page's internal links, repeat until the frontier is empty.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/internal/classifier"
	"github.com/motoroverpropage/motorover.in/internal/config"
	"github.com/motoroverpropage/motorover.in/internal/fetcher"
	"github.com/motoroverpropage/motorover.in/internal/frontier"
	"github.com/motoroverpropage/motorover.in/internal/politeness"
	"github.com/motoroverpropage/motorover.in/internal/processor"
	"github.com/motoroverpropage/motorover.in/internal/storage"
	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// Engine owns every piece of per-run state: frontier, URL states, pages,
// assets and the entity store. An Engine runs once.
type Engine struct {
	cfg    config.Config
	logger *slog.Logger
	runID  string

	normalizer *frontier.Normalizer
	queue      *frontier.Queue
	tracker    *frontier.Tracker
	gate       *politeness.Gate
	fetcher    fetcher.Fetcher
	extractor  *processor.Extractor
	entities   *classifier.Store
	classifier *classifier.Classifier
	pipeline   *storage.Pipeline
	metrics    *Metrics

	pages  []types.Page
	assets []types.AssetRecord

	closers   []func() error
	closeOnce sync.Once
}

type engineOptions struct {
	client  *http.Client
	fetcher fetcher.Fetcher
	metrics *Metrics
	stores  []storage.PageStore
}

// Option customises an Engine.
type Option func(*engineOptions)

// WithHTTPClient sets the client used for robots.txt and page fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(o *engineOptions) { o.client = client }
}

// WithFetcher replaces the HTTP page fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(o *engineOptions) { o.fetcher = f }
}

// WithMetrics records crawl progress into m.
func WithMetrics(m *Metrics) Option {
	return func(o *engineOptions) { o.metrics = m }
}

// WithPageStores adds sinks that receive every page as soon as it is extracted.
func WithPageStores(stores ...storage.PageStore) Option {
	return func(o *engineOptions) { o.stores = append(o.stores, stores...) }
}

// NewEngine builds a crawler engine from configuration.
func NewEngine(cfg config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}
	runID := NewRunID()
	logger = logger.With("run_id", runID)

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:           cfg.Crawl.UserAgent,
		Headers:             cfg.Crawl.Headers,
		Timeout:             cfg.Crawl.RequestTimeout.Duration,
		MaxBodyBytes:        cfg.Crawl.MaxBodyBytes,
		AllowedContentTypes: cfg.Crawl.AllowedContentTypes,
		Client:              o.client,
	})
	var pageFetcher fetcher.Fetcher = httpFetcher
	if o.fetcher != nil {
		pageFetcher = o.fetcher
	}

	stores := append([]storage.PageStore{}, o.stores...)
	var closers []func() error
	if cfg.DB.Enabled() {
		sqlWriter, err := storage.NewSQLWriter(context.Background(), cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("sql mirror: %w", err)
		}
		stores = append(stores, sqlWriter)
		closers = append(closers, sqlWriter.Close)
	}

	normalizer := frontier.NewNormalizer(cfg.Site.Domain)
	store := classifier.NewStore()

	return &Engine{
		cfg:        cfg,
		logger:     logger,
		runID:      runID,
		normalizer: normalizer,
		queue:      frontier.NewQueue(cfg.Crawl.MaxDepth),
		tracker:    frontier.NewTracker(),
		gate: politeness.NewGate(politeness.Options{
			UserAgent:     cfg.Crawl.UserAgent,
			RespectRobots: cfg.Robots.Respect,
			Delay:         cfg.Crawl.Delay.Duration,
			Client:        httpFetcher.Client(),
		}),
		fetcher:    pageFetcher,
		extractor:  processor.NewExtractor(normalizer, cfg.Site.DefaultLang),
		entities:   store,
		classifier: classifier.New(store),
		pipeline:   storage.NewPipeline(stores...),
		metrics:    o.metrics,
		closers:    closers,
	}, nil
}

// RunID identifies this crawl in logs.
func (e *Engine) RunID() string {
	return e.runID
}

// Run crawls from the site root until the frontier is empty. When ctx is
// cancelled the loop stops between pages and the partial snapshot is
// returned together with ctx's error.
func (e *Engine) Run(ctx context.Context) (types.Snapshot, error) {
	defer e.Close()
	started := time.Now()

	e.loadRobots(ctx)

	seed, ok := e.normalizer.Normalize(e.cfg.Site.BaseURL+"/", "")
	if !ok {
		return types.Snapshot{}, fmt.Errorf("base url %q is outside domain %q", e.cfg.Site.BaseURL, e.normalizer.Domain())
	}
	e.enqueue(seed, 0)

	for {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("context cancelled, stopping crawl", "queued", e.queue.Len())
			return e.Snapshot(), err
		}
		entry, ok := e.queue.Pop()
		if !ok {
			break
		}
		e.metrics.setFrontier(e.queue.Len())
		e.visit(ctx, entry)
	}

	e.logger.Info("crawl finished",
		"pages", len(e.pages),
		"assets", len(e.assets),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return e.Snapshot(), nil
}

// Snapshot returns everything accumulated so far.
func (e *Engine) Snapshot() types.Snapshot {
	return types.Snapshot{
		Pages:    append([]types.Page{}, e.pages...),
		Assets:   append([]types.AssetRecord{}, e.assets...),
		Entities: e.entities.Snapshot(),
	}
}

// StateCounts reports how many URLs ended in each state.
func (e *Engine) StateCounts() map[frontier.State]int {
	return e.tracker.Counts()
}

// Close releases resources owned by the engine.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		for _, closer := range e.closers {
			if cerr := closer(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	})
	return err
}

func (e *Engine) loadRobots(ctx context.Context) {
	if timeout := e.cfg.Robots.Timeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := e.gate.Load(ctx, e.cfg.Site.BaseURL); err != nil {
		e.logger.Warn("robots.txt unavailable, allowing all", "error", err)
		return
	}
	e.logger.Debug("robots policy loaded", "active", e.gate.RobotsLoaded())
}

// visit handles one dequeued entry. Every outcome is terminal for the URL.
func (e *Engine) visit(ctx context.Context, entry types.FrontierEntry) {
	target := entry.URL
	if e.tracker.State(target) != frontier.StatePending {
		return
	}
	if !e.gate.Allowed(target) {
		e.tracker.Skip(target)
		e.metrics.observePage(outcomeSkipped)
		e.logger.Info("skipping, disallowed by robots.txt", "url", target)
		return
	}
	if !e.tracker.Begin(target) {
		return
	}
	if err := e.gate.Wait(ctx); err != nil {
		e.fail(entry, fmt.Errorf("politeness wait: %w", err))
		return
	}

	e.logger.Info("scraping", "url", target, "depth", entry.Depth)
	page, err := e.process(ctx, entry)
	if err != nil {
		e.fail(entry, err)
		return
	}
	e.finish(target, frontier.StateDone)
	e.metrics.observePage(outcomeDone)

	for _, link := range page.InternalLinks {
		e.enqueue(link.Target, entry.Depth+1)
	}
}

func (e *Engine) process(ctx context.Context, entry types.FrontierEntry) (types.Page, error) {
	resp, err := e.fetcher.Fetch(ctx, entry.URL)
	if err != nil {
		return types.Page{}, err
	}
	e.metrics.observeFetch(resp.ResponseLatency)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return types.Page{}, fmt.Errorf("parse html %s: %w", entry.URL, err)
	}

	page, assets := e.extractor.Extract(doc, entry.URL)
	e.classifier.Classify(doc, page)
	e.pages = append(e.pages, page)
	e.assets = append(e.assets, assets...)
	e.metrics.addAssets(len(assets))

	rec, err := storage.NewPageRecord(resp, page, entry.Depth)
	if err == nil {
		err = e.pipeline.Persist(ctx, rec)
	}
	if err != nil {
		e.logger.Error("persist failed", "url", entry.URL, "error", err)
	}
	return page, nil
}

// enqueue admits url at depth unless it already left Pending, is already
// queued, or lies beyond the depth cutoff.
func (e *Engine) enqueue(url string, depth int) {
	if e.tracker.State(url) != frontier.StatePending {
		return
	}
	if !e.queue.Push(types.FrontierEntry{URL: url, Depth: depth}) {
		return
	}
	e.metrics.setFrontier(e.queue.Len())
}

func (e *Engine) fail(entry types.FrontierEntry, err error) {
	e.finish(entry.URL, frontier.StateFailed)
	e.metrics.observeFailure(failureKind(err))
	e.logger.Warn("fetch failed", "url", entry.URL, "depth", entry.Depth, "error", err)
}

func (e *Engine) finish(url string, outcome frontier.State) {
	if err := e.tracker.Finish(url, outcome); err != nil {
		e.logger.Error("state transition rejected", "url", url, "error", err)
	}
}
