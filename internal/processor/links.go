package processor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

func (e *Extractor) extractLinks(root *goquery.Selection, pageURL string) []types.Link {
	links := []types.Link{}
	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		target, ok := e.normalizer.Normalize(a.AttrOr("href", ""), pageURL)
		if !ok {
			return
		}
		links = append(links, types.Link{Anchor: Text(a), Target: target})
	})
	return links
}

// extractHints collects JSON-LD blocks and microdata item types. Malformed
// JSON-LD is skipped.
func extractHints(root *goquery.Selection) []types.StructuredHint {
	hints := []types.StructuredHint{}

	root.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		raw := strings.TrimSpace(script.Text())
		if raw == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		hints = append(hints, types.StructuredHint{Type: "json-ld", Data: data})
	})

	root.Find("[itemscope]").Each(func(_ int, item *goquery.Selection) {
		if itemType := strings.TrimSpace(item.AttrOr("itemtype", "")); itemType != "" {
			hints = append(hints, types.StructuredHint{Type: "microdata", ItemType: itemType})
		}
	})
	return hints
}
