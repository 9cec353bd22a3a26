package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a run is configured with out-of-range values.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrOracleFailure is returned when the oracle fails to expand a node of the batch.
	ErrOracleFailure = errors.New("oracle failure")

	// ErrRunInProgress is returned by lifecycle calls that need an idle engine.
	ErrRunInProgress = errors.New("run in progress")

	// ErrInvalidChild marks oracle output that breaks the tree invariants.
	ErrInvalidChild = errors.New("invalid child")

	errCancelled = errors.New("tick cancelled")
)

// OracleError records which node of a batch failed to expand.
type OracleError struct {
	NodeID string
	Err    error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle failed to expand node %s: %v", e.NodeID, e.Err)
}

func (e *OracleError) Unwrap() []error {
	return []error{ErrOracleFailure, e.Err}
}
