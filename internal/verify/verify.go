// Package verify cross-checks a crawl's artifacts against the site's
// sitemap.xml and a directory of downloaded images.
package verify

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/motoroverpropage/motorover.in/internal/storage"
	"github.com/motoroverpropage/motorover.in/pkg/types"
)

var (
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".avif": {},
	}
	widthSuffix = regexp.MustCompile(`-\d+w$`)
)

// Options locates the inputs of a verification run.
type Options struct {
	SitemapPath string
	ContentDir  string
	ImagesDir   string
	// RootURL is treated as equal with or without its trailing slash.
	RootURL string
}

// Report is the outcome of a verification run. URL lists are sorted.
type Report struct {
	SitemapURLs     int
	HTMLSitemapURLs int
	ScrapedURLs     int
	Missing         []string
	Extra           []string
	ImageAssets     int
	PageImages      int
	MissingInAssets []string
	Downloaded      int
}

// Complete reports whether every HTML sitemap URL was scraped.
func (r Report) Complete() bool {
	return len(r.Missing) == 0
}

type urlset struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// Run loads the sitemap, the crawl artifacts and the image directory and
// compares them.
func Run(opts Options) (Report, error) {
	sitemapURLs, err := LoadSitemap(opts.SitemapPath)
	if err != nil {
		return Report{}, err
	}
	snap, err := storage.Load(opts.ContentDir)
	if err != nil {
		return Report{}, fmt.Errorf("load crawl output: %w", err)
	}
	downloaded, err := DownloadedImages(opts.ImagesDir)
	if err != nil {
		return Report{}, err
	}
	return Compare(sitemapURLs, snap, downloaded, opts.RootURL), nil
}

// Compare builds a report from already loaded inputs.
func Compare(sitemapURLs []string, snap types.Snapshot, downloaded map[string]struct{}, rootURL string) Report {
	normalize := comparisonKey(rootURL)

	htmlSitemap := make(map[string]struct{})
	for _, u := range sitemapURLs {
		key := normalize(u)
		if strings.HasSuffix(key, ".txt") {
			continue
		}
		htmlSitemap[key] = struct{}{}
	}

	scraped := make(map[string]struct{})
	scrapedRaw := make(map[string]struct{})
	pageImages := make(map[string]struct{})
	for _, page := range snap.Pages {
		if page.URL == "" {
			continue
		}
		scrapedRaw[page.URL] = struct{}{}
		scraped[normalize(page.URL)] = struct{}{}
		for _, img := range page.Images {
			if img.Src != "" {
				pageImages[img.Src] = struct{}{}
			}
		}
	}

	assetURLs := make(map[string]struct{})
	imageAssets := 0
	for _, asset := range snap.Assets {
		if asset.Type != "image" {
			continue
		}
		imageAssets++
		assetURLs[asset.URL] = struct{}{}
	}

	return Report{
		SitemapURLs:     len(uniq(sitemapURLs)),
		HTMLSitemapURLs: len(htmlSitemap),
		ScrapedURLs:     len(scrapedRaw),
		Missing:         difference(htmlSitemap, scraped),
		Extra:           difference(scraped, htmlSitemap),
		ImageAssets:     imageAssets,
		PageImages:      len(pageImages),
		MissingInAssets: difference(pageImages, assetURLs),
		Downloaded:      len(downloaded),
	}
}

// LoadSitemap returns every <loc> in a sitemap.xml urlset.
func LoadSitemap(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sitemap: %w", err)
	}
	var doc urlset
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", path, err)
	}
	urls := make([]string, 0, len(doc.URLs))
	for _, entry := range doc.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// DownloadedImages lists the image stems in dir with any "-640w" style
// width suffix removed. A missing directory yields an empty set.
func DownloadedImages(dir string) (map[string]struct{}, error) {
	stems := make(map[string]struct{})
	if dir == "" {
		return stems, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stems, nil
		}
		return nil, fmt.Errorf("read images dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExtensions[ext]; !ok {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		stems[widthSuffix.ReplaceAllString(stem, "")] = struct{}{}
	}
	return stems, nil
}

func comparisonKey(rootURL string) func(string) string {
	root := strings.TrimRight(strings.TrimSpace(rootURL), "/")
	return func(u string) string {
		u = strings.TrimSpace(u)
		if root != "" && strings.TrimRight(u, "/") == root {
			return root + "/"
		}
		return strings.TrimRight(u, "/")
	}
}

func difference(a, b map[string]struct{}) []string {
	out := []string{}
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func uniq(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
