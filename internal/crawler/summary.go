package crawler

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/motoroverpropage/motorover.in/internal/frontier"
	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// Summary is the end-of-run count of pages, assets and entities.
type Summary struct {
	Pages        int
	Assets       int
	Tours        int
	FAQs         int
	Testimonials int
	Team         int
	Contacts     int
	Failed       int
	Skipped      int
	Elapsed      time.Duration
}

// Summarize counts the snapshot and the final URL states.
func Summarize(snap types.Snapshot, states map[frontier.State]int, elapsed time.Duration) Summary {
	return Summary{
		Pages:        len(snap.Pages),
		Assets:       len(snap.Assets),
		Tours:        len(snap.Entities.Tours),
		FAQs:         len(snap.Entities.FAQs),
		Testimonials: len(snap.Entities.Testimonials),
		Team:         len(snap.Entities.Team),
		Contacts:     len(snap.Entities.Contact),
		Failed:       states[frontier.StateFailed],
		Skipped:      states[frontier.StateSkipped],
		Elapsed:      elapsed,
	}
}

// Render writes the summary as a table.
func (s Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	// Footers stay as written so durations read "1.5s".
	t.Style().Format.Footer = text.FormatDefault
	t.SetTitle("Scraping complete")
	t.AppendHeader(table.Row{"Item", "Count"})
	t.AppendRows([]table.Row{
		{"Pages scraped", s.Pages},
		{"Assets found", s.Assets},
		{"Tours", s.Tours},
		{"FAQs", s.FAQs},
		{"Testimonials", s.Testimonials},
		{"Team members", s.Team},
		{"Contact records", s.Contacts},
		{"Failed URLs", s.Failed},
		{"Skipped by robots.txt", s.Skipped},
	})
	t.AppendFooter(table.Row{"Elapsed", s.Elapsed.Round(time.Millisecond).String()})
	t.Render()
}
