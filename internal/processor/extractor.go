// Package processor decomposes a parsed HTML document into a Page record:
// metadata, headings, images, forms, content blocks, internal links and
// structured data hints.
package processor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// URLNormalizer resolves and domain-filters a discovered href.
type URLNormalizer interface {
	Normalize(href, base string) (string, bool)
}

// Extractor turns parsed documents into Page records.
type Extractor struct {
	normalizer  URLNormalizer
	defaultLang string
}

// NewExtractor builds an extractor. defaultLang is used when the document
// root carries no lang attribute.
func NewExtractor(normalizer URLNormalizer, defaultLang string) *Extractor {
	if defaultLang == "" {
		defaultLang = "en-IN"
	}
	return &Extractor{normalizer: normalizer, defaultLang: defaultLang}
}

// Extract builds the Page for doc, fetched from pageURL, together with the
// asset records of every accepted image.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) (types.Page, []types.AssetRecord) {
	root := doc.Selection
	images, assets := e.extractImages(root, pageURL)

	page := types.Page{
		URL:                 pageURL,
		Slug:                slugFor(pageURL),
		Title:               strings.TrimSpace(Text(root.Find("title").First())),
		MetaDescription:     metaDescription(root),
		Canonical:           e.canonical(root, pageURL),
		Lang:                e.lang(root),
		Headings:            extractHeadings(root),
		ContentBlocks:       extractBlocks(root),
		Images:              images,
		Forms:               e.extractForms(root, pageURL),
		InternalLinks:       e.extractLinks(root, pageURL),
		StructuredDataHints: extractHints(root),
	}
	return page, assets
}

func metaDescription(root *goquery.Selection) string {
	for _, selector := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if tag := root.Find(selector).First(); tag.Length() > 0 {
			return strings.TrimSpace(tag.AttrOr("content", ""))
		}
	}
	return ""
}

func (e *Extractor) canonical(root *goquery.Selection, pageURL string) string {
	href := strings.TrimSpace(root.Find(`link[rel~="canonical"]`).First().AttrOr("href", ""))
	if href == "" {
		return pageURL
	}
	if normalized, ok := e.normalizer.Normalize(href, pageURL); ok {
		return normalized
	}
	return pageURL
}

func (e *Extractor) lang(root *goquery.Selection) string {
	if lang := strings.TrimSpace(root.Find("html").First().AttrOr("lang", "")); lang != "" {
		return lang
	}
	return e.defaultLang
}

var headingLevels = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

func extractHeadings(root *goquery.Selection) map[string][]string {
	headings := make(map[string][]string, len(headingLevels))
	for _, level := range headingLevels {
		texts := []string{}
		root.Find(level).Each(func(_ int, h *goquery.Selection) {
			if text := Text(h); text != "" {
				texts = append(texts, text)
			}
		})
		headings[level] = texts
	}
	return headings
}

var pageExtension = regexp.MustCompile(`(?i)\.(html?|php|aspx?)$`)

// slugFor derives a file-friendly name from the URL path: "/tours/ladakh.html"
// becomes "tours-ladakh" and the root becomes "index".
func slugFor(pageURL string) string {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		path = u.Path
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return "index"
	}
	path = pageExtension.ReplaceAllString(path, "")
	if slug := strings.ReplaceAll(path, "/", "-"); slug != "" {
		return slug
	}
	return "index"
}
