// Package storage persists crawl results: the JSON artifacts consumed by the
// site renderer and image pipeline, and an optional relational mirror.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// Artifact file names inside the output directory.
const (
	ContentFile  = "content.json"
	EntitiesFile = "entities.json"
	AssetsFile   = "assets.json"
	SitemapFile  = "sitemap.json"
)

type contentDocument struct {
	Pages []types.Page `json:"pages"`
}

type assetsDocument struct {
	Assets []types.AssetRecord `json:"assets"`
}

// JSONSink writes a crawl snapshot as four JSON files.
type JSONSink struct {
	dir string
}

// NewJSONSink returns a sink writing into dir.
func NewJSONSink(dir string) *JSONSink {
	return &JSONSink{dir: dir}
}

// Dir returns the output directory.
func (s *JSONSink) Dir() string {
	return s.dir
}

// Save writes content.json, entities.json, assets.json and sitemap.json. Each
// file is written through a temporary file and renamed into place.
func (s *JSONSink) Save(ctx context.Context, snap types.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	snap = withEmptyLists(snap)

	artifacts := []struct {
		name    string
		payload any
	}{
		{ContentFile, contentDocument{Pages: snap.Pages}},
		{EntitiesFile, snap.Entities},
		{AssetsFile, assetsDocument{Assets: snap.Assets}},
		{SitemapFile, BuildSitemap(snap.Pages)},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, artifact := range artifacts {
		artifact := artifact
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeJSON(filepath.Join(s.dir, artifact.name), artifact.payload)
		})
	}
	return g.Wait()
}

// Load reads the page, entity and asset artifacts back from dir.
func Load(dir string) (types.Snapshot, error) {
	var (
		content  contentDocument
		assets   assetsDocument
		entities types.Entities
	)
	if err := readJSON(filepath.Join(dir, ContentFile), &content); err != nil {
		return types.Snapshot{}, err
	}
	if err := readJSON(filepath.Join(dir, EntitiesFile), &entities); err != nil {
		return types.Snapshot{}, err
	}
	if err := readJSON(filepath.Join(dir, AssetsFile), &assets); err != nil {
		return types.Snapshot{}, err
	}
	return withEmptyLists(types.Snapshot{
		Pages:    content.Pages,
		Assets:   assets.Assets,
		Entities: entities,
	}), nil
}

func writeJSON(path string, payload any) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if encErr := enc.Encode(payload); encErr != nil {
		return errors.Join(fmt.Errorf("encode %s: %w", filepath.Base(path), encErr), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// withEmptyLists replaces nil slices so every list encodes as [].
func withEmptyLists(snap types.Snapshot) types.Snapshot {
	if snap.Pages == nil {
		snap.Pages = []types.Page{}
	}
	if snap.Assets == nil {
		snap.Assets = []types.AssetRecord{}
	}
	e := &snap.Entities
	if e.Tours == nil {
		e.Tours = []types.Tour{}
	}
	if e.Team == nil {
		e.Team = []types.TeamMember{}
	}
	if e.FAQs == nil {
		e.FAQs = []types.FAQ{}
	}
	if e.Testimonials == nil {
		e.Testimonials = []types.Testimonial{}
	}
	if e.Payments == nil {
		e.Payments = []any{}
	}
	if e.Contact == nil {
		e.Contact = []types.Contact{}
	}
	return snap
}
