package engine

import (
	"fmt"
	"time"
)

const (
	DefaultMaxDepth  = 3
	DefaultStepDelay = 1200 * time.Millisecond
)

// Config is the operator-facing simulation configuration.
// A tick reads it once when selecting, so changes apply from the next tick.
type Config struct {
	MaxDepth  int
	StepDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:  DefaultMaxDepth,
		StepDelay: DefaultStepDelay,
	}
}

func (c Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("%w: max depth must be at least 1, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.StepDelay < 0 {
		return fmt.Errorf("%w: step delay must not be negative, got %s", ErrInvalidConfig, c.StepDelay)
	}
	return nil
}

// Pacing splits the step delay across the three timed phases.
type Pacing struct {
	Transmit float64
	Think    float64
	Generate float64
}

var DefaultPacing = Pacing{Transmit: 0.3, Think: 0.4, Generate: 0.3}

func (p Pacing) split(step time.Duration) (transmit, think, generate time.Duration) {
	scale := func(f float64) time.Duration {
		if f <= 0 {
			return 0
		}
		return time.Duration(float64(step) * f)
	}
	return scale(p.Transmit), scale(p.Think), scale(p.Generate)
}

type FailureMode int

const (
	// HaltOnFailure ends the run when the oracle fails.
	HaltOnFailure FailureMode = iota
	// RetryBatch re-sends the same batch up to MaxRetries times before halting.
	RetryBatch
)

func (m FailureMode) String() string {
	switch m {
	case HaltOnFailure:
		return "halt"
	case RetryBatch:
		return "retry"
	default:
		return fmt.Sprintf("FailureMode(%d)", int(m))
	}
}

// ParseFailureMode accepts the names returned by FailureMode.String.
func ParseFailureMode(s string) (FailureMode, error) {
	switch s {
	case "halt", "":
		return HaltOnFailure, nil
	case "retry":
		return RetryBatch, nil
	default:
		return HaltOnFailure, fmt.Errorf("%w: unknown oracle failure mode %q", ErrInvalidConfig, s)
	}
}

type FailurePolicy struct {
	Mode       FailureMode
	MaxRetries int
}
