package engine

import (
	"strings"

	"github.com/rs/zerolog"

	"triz/tree"
)

// LogObserver writes tick events as structured log lines.
type LogObserver struct {
	logger zerolog.Logger
}

func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (l *LogObserver) OnTreeChanged(root *tree.Node) {
	l.logger.Trace().Int("nodes", tree.CountNodes(root)).Msg("tree published")
}

func (l *LogObserver) OnProcessorStateChanged(state ProcessorState) {
	l.logger.Trace().Int("tick", state.Tick).Stringer("phase", state.Phase).Int("inputs", len(state.Inputs)).Msg("processor state")
}

func (l *LogObserver) OnTickEvent(event Event) {
	switch event.Kind {
	case EventStarted:
		l.logger.Info().Int("max_depth", event.MaxDepth).Int("nodes", event.Stats.TotalNodes).Msg("simulation started")
	case EventBatchSelected:
		l.logger.Debug().
			Int("tick", event.Tick).
			Bool("probing", event.Probing).
			Strs("nodes", event.NodeIDs).
			Msgf("sending batch [%s] to expansion module", shortPrompts(event.Prompts))
	case EventGenerated:
		l.logger.Info().
			Int("tick", event.Tick).
			Msgf("module generated %d solutions for %d nodes", event.Generated, len(event.NodeIDs))
	case EventMerged:
		l.logger.Debug().
			Int("tick", event.Tick).
			Int("nodes", event.Stats.TotalNodes).
			Int("max_level", event.Stats.MaxLevel).
			Msg("tree updated")
	case EventCompleted:
		l.logger.Info().
			Int("nodes", event.Stats.TotalNodes).
			Msgf("tree expansion complete (max depth: %d)", event.MaxDepth)
	case EventCancelled:
		l.logger.Warn().Int("tick", event.Tick).Stringer("phase", event.Phase).Msg("simulation paused")
	case EventOracleFailed:
		l.logger.Error().Err(event.Err).Int("tick", event.Tick).Strs("nodes", event.NodeIDs).Msg("expansion failed")
	case EventRetrying:
		l.logger.Warn().Int("tick", event.Tick).Strs("nodes", event.NodeIDs).Msg("retrying batch")
	case EventUnmatchedParent:
		l.logger.Warn().Int("tick", event.Tick).Strs("nodes", event.NodeIDs).Msg("merge target not found")
	}
}

// shortPrompts keeps the first word of each prompt.
func shortPrompts(prompts []string) string {
	names := make([]string, len(prompts))
	for i, p := range prompts {
		word, _, _ := strings.Cut(p, " ")
		names[i] = `"` + word + `..."`
	}
	return strings.Join(names, " & ")
}
