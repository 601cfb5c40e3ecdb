package frontier_test

import (
	"testing"

	"github.com/motoroverpropage/motorover.in/internal/frontier"
	"github.com/motoroverpropage/motorover.in/pkg/types"
)

func TestQueueFIFO(t *testing.T) {
	q := frontier.NewQueue(3)
	for _, u := range []string{"a", "b", "c"} {
		if !q.Push(types.FrontierEntry{URL: u, Depth: 1}) {
			t.Fatalf("expected %s to be admitted", u)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Pop()
		if !ok || got.URL != want {
			t.Fatalf("expected %s, got %+v (ok=%v)", want, got, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestQueueDedupAndDepthCutoff(t *testing.T) {
	q := frontier.NewQueue(2)
	if !q.Push(types.FrontierEntry{URL: "a", Depth: 2}) {
		t.Fatal("depth equal to max must be admitted")
	}
	if q.Push(types.FrontierEntry{URL: "a", Depth: 1}) {
		t.Fatal("already queued url must be rejected")
	}
	if q.Push(types.FrontierEntry{URL: "b", Depth: 3}) {
		t.Fatal("depth beyond max must be rejected")
	}
	if q.Len() != 1 || !q.Contains("a") {
		t.Fatalf("unexpected queue state: len=%d", q.Len())
	}
	q.Pop()
	if q.Contains("a") {
		t.Fatal("popped url must leave the queued set")
	}
}

func TestTrackerTransitions(t *testing.T) {
	tr := frontier.NewTracker()
	if tr.State("u") != frontier.StatePending {
		t.Fatal("unknown url must be pending")
	}
	if !tr.Begin("u") {
		t.Fatal("pending url must begin")
	}
	if tr.Begin("u") {
		t.Fatal("url must leave pending only once")
	}
	if !tr.Visited("u") {
		t.Fatal("fetching url counts as visited")
	}
	if err := tr.Finish("u", frontier.StateDone); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := tr.Finish("u", frontier.StateFailed); err == nil {
		t.Fatal("done url must not transition again")
	}

	if !tr.Skip("robots") {
		t.Fatal("pending url can be skipped")
	}
	if tr.Visited("robots") || tr.Begin("robots") {
		t.Fatal("skipped url is terminal and not visited")
	}

	tr.Begin("broken")
	if err := tr.Finish("broken", frontier.StatePending); err == nil {
		t.Fatal("pending is not a valid outcome")
	}
	_ = tr.Finish("broken", frontier.StateFailed)

	counts := tr.Counts()
	if counts[frontier.StateDone] != 1 || counts[frontier.StateFailed] != 1 || counts[frontier.StateSkipped] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
