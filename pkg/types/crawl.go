package types

import (
	"net/http"
	"time"
)

// FrontierEntry models a work item waiting in the crawl frontier.
type FrontierEntry struct {
	URL   string
	Depth int
}

// Response represents the raw fetched content of a single URL.
type Response struct {
	URL             string
	FinalURL        string
	Body            []byte
	ContentType     string
	StatusCode      int
	Headers         http.Header
	FetchedAt       time.Time
	ResponseLatency time.Duration
}

// Snapshot aggregates everything a crawl run accumulated. It is the unit
// handed to the persistence sinks.
type Snapshot struct {
	Pages    []Page
	Assets   []AssetRecord
	Entities Entities
}
