package frontier

import (
	"fmt"
	"sync"
)

// State is the lifecycle position of a URL within one crawl run.
type State int

const (
	// StatePending is the zero state of every URL never seen by the worker.
	StatePending State = iota
	// StateFetching means the politeness gate approved the URL and a fetch is in flight.
	StateFetching
	// StateDone means a Page was produced and its links were enqueued.
	StateDone
	// StateFailed is terminal: the fetch or parse failed and the URL is never retried.
	StateFailed
	// StateSkipped is terminal: robots rules disallowed the URL. It is not visited.
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Tracker records the state of every URL the crawl has touched. Entries are
// never removed, so the visited set only grows during a run.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]State
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]State)}
}

// State returns the current state of url.
func (t *Tracker) State(url string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[url]
}

// Visited reports whether url passed the politeness gate at some point.
func (t *Tracker) Visited(url string) bool {
	switch t.State(url) {
	case StateFetching, StateDone, StateFailed:
		return true
	default:
		return false
	}
}

// Begin moves url from Pending to Fetching. It returns false when the URL has
// already left Pending, which is what guarantees a single fetch per URL.
func (t *Tracker) Begin(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries[url] != StatePending {
		return false
	}
	t.entries[url] = StateFetching
	return true
}

// Skip marks a pending url as disallowed by policy.
func (t *Tracker) Skip(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries[url] != StatePending {
		return false
	}
	t.entries[url] = StateSkipped
	return true
}

// Finish moves a fetching url to Done or Failed.
func (t *Tracker) Finish(url string, outcome State) error {
	if outcome != StateDone && outcome != StateFailed {
		return fmt.Errorf("finish %s: invalid outcome %s", url, outcome)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if current := t.entries[url]; current != StateFetching {
		return fmt.Errorf("finish %s: expected %s, got %s", url, StateFetching, current)
	}
	t.entries[url] = outcome
	return nil
}

// Counts returns the number of URLs per state, excluding Pending.
func (t *Tracker) Counts() map[State]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	counts := make(map[State]int)
	for _, state := range t.entries {
		counts[state]++
	}
	return counts
}
