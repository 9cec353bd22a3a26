package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"triz/searcher"
	"triz/tree"
)

var errBoom = errors.New("boom")

// mockOracle produces a fixed number of children per call. Ids carry the call
// number, so children from different calls never collide.
type mockOracle struct {
	mu       sync.Mutex
	children int
	calls    int
	failures map[string]int // Node id -> failures left, -1 fails forever
}

func newMockOracle(children int) *mockOracle {
	return &mockOracle{children: children, failures: map[string]int{}}
}

func (m *mockOracle) failOn(id string, times int) *mockOracle {
	m.failures[id] = times
	return m
}

func (m *mockOracle) Expand(ctx context.Context, node *tree.Node) ([]*tree.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if left, ok := m.failures[node.ID]; ok && left != 0 {
		if left > 0 {
			m.failures[node.ID] = left - 1
		}
		return nil, errBoom
	}
	children := make([]*tree.Node, m.children)
	for i := range children {
		children[i] = &tree.Node{
			ID:       fmt.Sprintf("%s_%d.%d", node.ID, m.calls, i),
			Prompt:   fmt.Sprintf("Sub-solution %d", i+1),
			Level:    node.Level + 1,
			Score:    0.5,
			ParentID: node.ID,
		}
	}
	return children, nil
}

func (m *mockOracle) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recorder keeps every notification in delivery order.
type recorder struct {
	mu      sync.Mutex
	entries []string
	events  []Event
	trees   []*tree.Node
	onState func(ProcessorState)
}

func (r *recorder) OnTreeChanged(root *tree.Node) {
	r.mu.Lock()
	r.entries = append(r.entries, "tree")
	r.trees = append(r.trees, root)
	r.mu.Unlock()
}

func (r *recorder) OnProcessorStateChanged(state ProcessorState) {
	r.mu.Lock()
	r.entries = append(r.entries, "state:"+state.Phase.String())
	onState := r.onState
	r.mu.Unlock()

	if onState != nil {
		onState(state)
	}
}

func (r *recorder) OnTickEvent(event Event) {
	r.mu.Lock()
	r.entries = append(r.entries, "event:"+event.Kind.String())
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) eventsOf(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, event := range r.events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}

func (r *recorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

func zerologDiscard() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestEngine(o *mockOracle, rec *recorder, options ...Option) *Engine {
	base := []Option{
		WithOracle(o),
		WithBatchSizer(searcher.FixedBatch(2)),
		WithLogger(zerologDiscard()),
		WithObserver(rec),
	}
	return New(append(base, options...)...)
}

func levelsOf(root *tree.Node) map[string]int {
	levels := map[string]int{}
	tree.Walk(root, func(n *tree.Node) bool {
		levels[n.ID] = n.Level
		return true
	})
	return levels
}
