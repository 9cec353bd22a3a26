package engine

import (
	"fmt"
	"time"

	"triz/tree"
)

type EventKind int

const (
	EventStarted EventKind = iota
	EventBatchSelected
	EventGenerated
	EventMerged
	EventCompleted
	EventCancelled
	EventOracleFailed
	EventRetrying
	EventUnmatchedParent
)

var eventNames = [...]string{
	EventStarted:         "started",
	EventBatchSelected:   "batch_selected",
	EventGenerated:       "generated",
	EventMerged:          "merged",
	EventCompleted:       "completed",
	EventCancelled:       "cancelled",
	EventOracleFailed:    "oracle_failed",
	EventRetrying:        "retrying",
	EventUnmatchedParent: "unmatched_parent",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

type Event struct {
	Tick      int
	Kind      EventKind
	Phase     Phase
	MaxDepth  int
	Probing   bool
	NodeIDs   []string
	Prompts   []string
	Generated int
	Stats     tree.Stats
	Err       error
	Time      time.Time
}

// Observer receives engine notifications synchronously, in phase order.
// Implementations must not block for long: the tick waits for them.
type Observer interface {
	OnTreeChanged(root *tree.Node)
	OnProcessorStateChanged(state ProcessorState)
	OnTickEvent(event Event)
}

// ObserverFuncs adapts optional callbacks to Observer.
type ObserverFuncs struct {
	TreeChanged           func(root *tree.Node)
	ProcessorStateChanged func(state ProcessorState)
	TickEvent             func(event Event)
}

func (o ObserverFuncs) OnTreeChanged(root *tree.Node) {
	if o.TreeChanged != nil {
		o.TreeChanged(root)
	}
}

func (o ObserverFuncs) OnProcessorStateChanged(state ProcessorState) {
	if o.ProcessorStateChanged != nil {
		o.ProcessorStateChanged(state)
	}
}

func (o ObserverFuncs) OnTickEvent(event Event) {
	if o.TickEvent != nil {
		o.TickEvent(event)
	}
}
