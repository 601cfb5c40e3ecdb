package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// PageRecord is the per-page row handed to page stores while the crawl runs.
type PageRecord struct {
	URL        string
	FinalURL   string
	Depth      int
	FetchedAt  time.Time
	StatusCode int
	Slug       string
	Title      string
	Page       []byte
}

// NewPageRecord builds a record from the fetched response and the extracted page.
func NewPageRecord(resp *types.Response, page types.Page, depth int) (PageRecord, error) {
	encoded, err := json.Marshal(page)
	if err != nil {
		return PageRecord{}, fmt.Errorf("encode page %s: %w", page.URL, err)
	}
	rec := PageRecord{
		URL:      page.URL,
		FinalURL: page.URL,
		Depth:    depth,
		Slug:     page.Slug,
		Title:    page.Title,
		Page:     encoded,
	}
	if resp != nil {
		if resp.FinalURL != "" {
			rec.FinalURL = resp.FinalURL
		}
		rec.FetchedAt = resp.FetchedAt
		rec.StatusCode = resp.StatusCode
	}
	return rec, nil
}

// PageStore persists crawled pages as they are produced.
type PageStore interface {
	SavePage(ctx context.Context, rec PageRecord) error
}

// Pipeline fans out page records to every configured store.
type Pipeline struct {
	stores []PageStore
}

// NewPipeline constructs a storage pipeline. It returns nil when no store is
// given; a nil Pipeline accepts and drops every record.
func NewPipeline(stores ...PageStore) *Pipeline {
	kept := make([]PageStore, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &Pipeline{stores: kept}
}

// Persist stores rec in all sinks and joins their errors.
func (p *Pipeline) Persist(ctx context.Context, rec PageRecord) error {
	if p == nil {
		return nil
	}
	if rec.URL == "" {
		return errors.New("invalid page record: missing url")
	}
	var errs []error
	for _, s := range p.stores {
		if err := s.SavePage(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
