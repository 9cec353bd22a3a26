package engine

import (
	"fmt"

	"triz/tree"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseTransmitting
	PhaseThinking
	PhaseGenerating
	PhaseMerging
	PhaseTerminal
)

var phaseNames = [...]string{
	PhaseIdle:         "idle",
	PhaseSelecting:    "selecting",
	PhaseTransmitting: "transmitting",
	PhaseThinking:     "thinking",
	PhaseGenerating:   "generating",
	PhaseMerging:      "merging",
	PhaseTerminal:     "terminal",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

type Input struct {
	ID     string
	Prompt string
}

type Output struct {
	ParentID string
	Children []*tree.Node
}

// ProcessorState is the per-tick view of the expansion module.
// Published values are never modified.
type ProcessorState struct {
	Tick    int
	Phase   Phase
	Inputs  []Input
	Outputs []Output
}

func idleState() ProcessorState {
	return ProcessorState{Phase: PhaseIdle}
}

// Generated is the total number of children across all outputs.
func (s ProcessorState) Generated() int {
	total := 0
	for _, output := range s.Outputs {
		total += len(output.Children)
	}
	return total
}
