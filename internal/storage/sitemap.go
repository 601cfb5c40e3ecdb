package storage

import (
	"net/url"
	"strings"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// urlKey marks the node of a path tree that corresponds to a crawled page.
const urlKey = "_url"

// Sitemap is the sitemap.json document.
type Sitemap struct {
	URLs      []string          `json:"urls"`
	Hierarchy map[string]any    `json:"hierarchy"`
	Redirects map[string]string `json:"redirects"`
}

// BuildSitemap lists the crawled URLs in crawl order and derives their path tree.
func BuildSitemap(pages []types.Page) Sitemap {
	urls := make([]string, 0, len(pages))
	for _, page := range pages {
		urls = append(urls, page.URL)
	}
	return Sitemap{
		URLs:      urls,
		Hierarchy: BuildHierarchy(pages),
		Redirects: map[string]string{},
	}
}

// BuildHierarchy nests pages by URL path segment. The node reached by a page's
// full path carries the page URL under "_url"; the site root annotates the
// top-level map itself.
func BuildHierarchy(pages []types.Page) map[string]any {
	hierarchy := map[string]any{}
	for _, page := range pages {
		path := page.URL
		if u, err := url.Parse(page.URL); err == nil {
			path = u.Path
		}

		current := hierarchy
		for _, part := range strings.Split(path, "/") {
			if part == "" {
				continue
			}
			next, ok := current[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				current[part] = next
			}
			current = next
		}
		current[urlKey] = page.URL
	}
	return hierarchy
}
