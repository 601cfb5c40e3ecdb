package verify

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	maxMissingListed = 10
	maxExtraListed   = 5
)

// Render writes the report as tables.
func (r Report) Render(w io.Writer) {
	urls := table.NewWriter()
	urls.SetOutputMirror(w)
	urls.SetStyle(table.StyleLight)
	urls.SetTitle("URL verification")
	urls.AppendHeader(table.Row{"Check", "Count"})
	urls.AppendRows([]table.Row{
		{"URLs in sitemap", r.SitemapURLs},
		{"URLs in sitemap (HTML only)", r.HTMLSitemapURLs},
		{"URLs scraped", r.ScrapedURLs},
		{"URLs missing", len(r.Missing)},
		{"Extra URLs (not in sitemap)", len(r.Extra)},
	})
	urls.Render()
	listURLs(w, "Missing URLs", r.Missing, maxMissingListed)
	listURLs(w, "Extra URLs", r.Extra, maxExtraListed)

	images := table.NewWriter()
	images.SetOutputMirror(w)
	images.SetStyle(table.StyleLight)
	images.SetTitle("Image verification")
	images.AppendHeader(table.Row{"Check", "Count"})
	images.AppendRows([]table.Row{
		{"Image references in assets.json", r.ImageAssets},
		{"Unique image URLs in pages", r.PageImages},
		{"Page images not in assets.json", len(r.MissingInAssets)},
		{"Images downloaded", r.Downloaded},
	})
	images.Render()
	listURLs(w, "Page images not in assets.json", r.MissingInAssets, maxExtraListed)

	switch {
	case !r.Complete():
		fmt.Fprintf(w, "%d URLs still need to be scraped\n", len(r.Missing))
	case r.ImageAssets > 0:
		fmt.Fprintln(w, "All HTML URLs scraped and images found")
	default:
		fmt.Fprintln(w, "All HTML URLs scraped; no image references yet")
	}
}

func listURLs(w io.Writer, title string, urls []string, limit int) {
	if len(urls) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s (first %d)", title, min(limit, len(urls))))
	for i, u := range urls {
		if i == limit {
			break
		}
		t.AppendRow(table.Row{u})
	}
	t.Render()
}
