// Package classifier scans extracted pages for domain entities: FAQs,
// testimonials, tours, team members and contact details.
//
// Every heuristic is a keyword or class-name match. Rules run in a fixed
// order and, inside a rule, the first matching element wins.
package classifier

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/internal/processor"
	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// pageContext is the per-page input shared by all rules.
type pageContext struct {
	root     *goquery.Selection
	page     types.Page
	url      string
	fullText string
}

type rule struct {
	name  string
	apply func(ctx *pageContext, found *types.Entities)
}

var rules = []rule{
	{name: "faq", apply: classifyFAQs},
	{name: "testimonial", apply: classifyTestimonials},
	{name: "tour", apply: classifyTour},
	{name: "team", apply: classifyTeam},
	{name: "contact", apply: classifyContact},
}

// Classifier writes the entities of each page into a shared Store.
type Classifier struct {
	store *Store
}

// New returns a classifier feeding store.
func New(store *Store) *Classifier {
	return &Classifier{store: store}
}

// Classify runs every rule over doc and the Page extracted from it, adds the
// result to the store and returns it.
func (c *Classifier) Classify(doc *goquery.Document, page types.Page) types.Entities {
	found := Extract(doc, page)
	c.store.Add(found)
	return found
}

// Extract runs every rule without touching a store.
func Extract(doc *goquery.Document, page types.Page) types.Entities {
	ctx := &pageContext{
		root:     doc.Selection,
		page:     page,
		url:      strings.ToLower(page.URL),
		fullText: processor.Text(doc.Selection),
	}
	found := types.NewEntities()
	for _, r := range rules {
		r.apply(ctx, &found)
	}
	return found
}
