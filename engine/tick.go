package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"triz/metrics"
	"triz/searcher"
	"triz/tree"
)

// tick runs one Selecting → Merging cycle. stop reports that the run is over.
func (e *Engine) tick(ctx context.Context, n int) (outcome Outcome, stop bool, err error) {
	if e.isCancelled(ctx) {
		return e.abandon(n, PhaseIdle, errCancelled)
	}

	// Selecting
	cfg := e.Config()
	root := e.Tree()
	stats := tree.ComputeStats(root)
	e.publishState(ProcessorState{Tick: n, Phase: PhaseSelecting})

	candidates := searcher.FindExpandable(root, cfg.MaxDepth)
	if len(candidates) == 0 {
		e.publishState(ProcessorState{Tick: n, Phase: PhaseTerminal})
		e.emit(Event{Tick: n, Kind: EventCompleted, Phase: PhaseTerminal, MaxDepth: cfg.MaxDepth, Stats: stats})
		return OutcomeCompleted, true, nil
	}

	probing := stats.MaxLevel < cfg.MaxDepth
	batch := searcher.SelectBatch(candidates, probing, e.sizer)
	inputs := make([]Input, len(batch))
	nodeIDs := make([]string, len(batch))
	prompts := make([]string, len(batch))
	for i, node := range batch {
		inputs[i] = Input{ID: node.ID, Prompt: node.Prompt}
		nodeIDs[i] = node.ID
		prompts[i] = node.Prompt
	}
	e.emit(Event{
		Tick:     n,
		Kind:     EventBatchSelected,
		Phase:    PhaseSelecting,
		MaxDepth: cfg.MaxDepth,
		Probing:  probing,
		NodeIDs:  nodeIDs,
		Prompts:  prompts,
		Stats:    stats,
	})

	for attempt := 0; ; attempt++ {
		outputs, phase, err := e.process(ctx, n, cfg, root, batch, inputs)
		if err == nil {
			e.merge(n, root, inputs, outputs, probing)
			return OutcomeNone, false, nil
		}

		if errors.Is(err, errCancelled) {
			return e.abandon(n, phase, err)
		}

		// The whole batch is dropped, including nodes that expanded fine
		e.publishState(idleState())
		e.metrics.AddFailure()
		e.logger.Error().Err(err).Int("tick", n).Strs("batch", nodeIDs).Msg("oracle failed, tick abandoned")
		e.emit(Event{Tick: n, Kind: EventOracleFailed, Phase: phase, NodeIDs: nodeIDs, Err: err, Stats: stats})

		if e.failure.Mode == RetryBatch && attempt < e.failure.MaxRetries {
			e.emit(Event{Tick: n, Kind: EventRetrying, Phase: PhaseIdle, NodeIDs: nodeIDs, Err: err, Stats: stats})
			continue
		}
		return OutcomeFailed, true, err
	}
}

// process runs Transmitting, Thinking and Generating for one batch. On error it
// also returns the phase that was interrupted.
func (e *Engine) process(ctx context.Context, n int, cfg Config, root *tree.Node, batch []*tree.Node, inputs []Input) ([]Output, Phase, error) {
	transmit, think, generate := e.pacing.split(cfg.StepDelay)

	e.publishState(ProcessorState{Tick: n, Phase: PhaseTransmitting, Inputs: inputs})
	if !e.hold(ctx, transmit) {
		return nil, PhaseTransmitting, errCancelled
	}

	e.publishState(ProcessorState{Tick: n, Phase: PhaseThinking, Inputs: inputs})
	if !e.hold(ctx, think) {
		return nil, PhaseThinking, errCancelled
	}

	outputs, err := e.generate(ctx, root, batch)
	if err != nil {
		if e.isCancelled(ctx) {
			return nil, PhaseGenerating, errCancelled
		}
		return nil, PhaseGenerating, err
	}
	state := ProcessorState{Tick: n, Phase: PhaseGenerating, Inputs: inputs, Outputs: outputs}
	e.publishState(state)
	e.emit(Event{
		Tick:      n,
		Kind:      EventGenerated,
		Phase:     PhaseGenerating,
		NodeIDs:   nodeIDsOf(inputs),
		Generated: state.Generated(),
	})
	if !e.hold(ctx, generate) {
		return nil, PhaseGenerating, errCancelled
	}

	return outputs, PhaseGenerating, nil
}

// generate asks the oracle for every node of the batch. Outputs keep batch order.
func (e *Engine) generate(ctx context.Context, root *tree.Node, batch []*tree.Node) ([]Output, error) {
	outputs := make([]Output, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	for i, node := range batch {
		g.Go(func() error {
			children, err := e.oracle.Expand(gctx, node)
			if err == nil {
				err = validateChildren(node, children)
			}
			if err != nil {
				return &OracleError{NodeID: node.ID, Err: err}
			}
			outputs[i] = Output{ParentID: node.ID, Children: children}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := checkUniqueIDs(root, outputs); err != nil {
		return nil, err
	}
	return outputs, nil
}

func validateChildren(parent *tree.Node, children []*tree.Node) error {
	for _, child := range children {
		switch {
		case child == nil:
			return fmt.Errorf("%w: nil child", ErrInvalidChild)
		case child.Level != parent.Level+1:
			return fmt.Errorf("%w: %s has level %d under level %d", ErrInvalidChild, child.ID, child.Level, parent.Level)
		case child.ParentID != parent.ID:
			return fmt.Errorf("%w: %s has parent %q, want %q", ErrInvalidChild, child.ID, child.ParentID, parent.ID)
		case child.Expanded || len(child.Children) > 0:
			return fmt.Errorf("%w: %s is already expanded", ErrInvalidChild, child.ID)
		case !(child.Score >= 0 && child.Score <= 1): // NaN fails both
			return fmt.Errorf("%w: %s has score %f outside [0,1]", ErrInvalidChild, child.ID, child.Score)
		case child.ID == "":
			return fmt.Errorf("%w: child of %s has no id", ErrInvalidChild, parent.ID)
		}
	}
	return nil
}

// merge folds the outputs into the pre-tick tree in batch order and publishes
// the result.
func (e *Engine) merge(n int, root *tree.Node, inputs []Input, outputs []Output, probing bool) {
	e.publishState(ProcessorState{Tick: n, Phase: PhaseMerging, Inputs: inputs, Outputs: outputs})

	next := root
	generated := 0
	for _, output := range outputs {
		var found bool
		next, found = tree.ApplyChildrenFound(next, output.ParentID, output.Children)
		if !found {
			e.logger.Warn().Int("tick", n).Str("parent", output.ParentID).Msg("merge target not found, output ignored")
			e.emit(Event{Tick: n, Kind: EventUnmatchedParent, Phase: PhaseMerging, NodeIDs: []string{output.ParentID}})
			continue
		}
		generated += len(output.Children)
	}

	e.tree.Store(next)
	e.notifyTree(next)

	stats := tree.ComputeStats(next)
	e.metrics.AddTick(metrics.TickMetric{
		Tick:      n,
		BatchSize: len(outputs),
		Generated: generated,
		Probing:   probing,
		TreeSize:  stats.TotalNodes,
	})
	e.emit(Event{
		Tick:      n,
		Kind:      EventMerged,
		Phase:     PhaseMerging,
		Probing:   probing,
		NodeIDs:   nodeIDsOf(inputs),
		Generated: generated,
		Stats:     stats,
	})
	e.publishState(idleState())
}

// abandon drops the in-flight tick without touching the published tree.
func (e *Engine) abandon(n int, phase Phase, err error) (Outcome, bool, error) {
	e.publishState(idleState())
	e.metrics.AddCancelled()
	e.logger.Debug().Int("tick", n).Stringer("phase", phase).Err(err).Msg("tick abandoned")
	e.emit(Event{Tick: n, Kind: EventCancelled, Phase: phase, Stats: e.Stats()})
	return OutcomeCancelled, true, nil
}

// checkUniqueIDs rejects generated ids that already exist in the tree or
// repeat within the batch.
func checkUniqueIDs(root *tree.Node, outputs []Output) error {
	seen := map[string]bool{}
	tree.Walk(root, func(n *tree.Node) bool {
		seen[n.ID] = true
		return true
	})
	for _, output := range outputs {
		for _, child := range output.Children {
			if seen[child.ID] {
				return &OracleError{
					NodeID: output.ParentID,
					Err:    fmt.Errorf("%w: duplicate id %s", ErrInvalidChild, child.ID),
				}
			}
			seen[child.ID] = true
		}
	}
	return nil
}

func nodeIDsOf(inputs []Input) []string {
	ids := make([]string, len(inputs))
	for i, input := range inputs {
		ids[i] = input.ID
	}
	return ids
}
