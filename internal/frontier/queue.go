package frontier

import (
	"sync"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// Queue is a FIFO of frontier entries. A URL can be queued only once at a
// time and entries deeper than the configured maximum are never admitted.
type Queue struct {
	maxDepth int

	mu      sync.Mutex
	entries []types.FrontierEntry
	queued  map[string]struct{}
}

// NewQueue creates an empty frontier bounded by maxDepth (inclusive).
func NewQueue(maxDepth int) *Queue {
	return &Queue{
		maxDepth: maxDepth,
		queued:   make(map[string]struct{}),
	}
}

// Push appends an entry and reports whether it was admitted.
func (q *Queue) Push(entry types.FrontierEntry) bool {
	if entry.URL == "" || entry.Depth < 0 || entry.Depth > q.maxDepth {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queued[entry.URL]; ok {
		return false
	}
	q.queued[entry.URL] = struct{}{}
	q.entries = append(q.entries, entry)
	return true
}

// Pop removes and returns the oldest entry.
func (q *Queue) Pop() (types.FrontierEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return types.FrontierEntry{}, false
	}
	entry := q.entries[0]
	q.entries[0] = types.FrontierEntry{}
	q.entries = q.entries[1:]
	delete(q.queued, entry.URL)
	return entry, true
}

// Contains reports whether url is currently waiting in the queue.
func (q *Queue) Contains(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.queued[url]
	return ok
}

// Len returns the number of waiting entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// MaxDepth returns the inclusive depth cutoff.
func (q *Queue) MaxDepth() int {
	return q.maxDepth
}
