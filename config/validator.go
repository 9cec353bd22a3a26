package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"triz/engine"
)

// ErrInvalid matches every error returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key (e.g., "simulation.max_depth")
	Value   any
	Message string
	Err     error // Underlying cause, if any
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

func (e ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalid}
	}
	return []error{ErrInvalid, e.Err}
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return sb.String()
}

func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}

func ValidLogLevels() []string {
	return []string{"trace", "debug", "info", "warn", "error"}
}

// Validate returns nil or a ValidationErrors listing every invalid key.
func (c *Config) Validate() error {
	var errs ValidationErrors
	errs = append(errs, c.validateSimulation()...)
	errs = append(errs, c.validatePolicy()...)
	errs = append(errs, c.validateOracle()...)
	errs = append(errs, c.validateLogging()...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (c *Config) validateSimulation() []ValidationError {
	var errs []ValidationError

	if c.Simulation.MaxDepth < 1 {
		errs = append(errs, ValidationError{
			Field:   "simulation.max_depth",
			Value:   c.Simulation.MaxDepth,
			Message: "must be at least 1",
			Err:     engine.ErrInvalidConfig,
		})
	}
	if c.Simulation.StepDelay < 0 {
		errs = append(errs, ValidationError{
			Field:   "simulation.step_delay",
			Value:   c.Simulation.StepDelay,
			Message: "must not be negative",
			Err:     engine.ErrInvalidConfig,
		})
	}

	return errs
}

func (c *Config) validatePolicy() []ValidationError {
	var errs []ValidationError

	if c.Policy.MaxBatch < 1 {
		errs = append(errs, ValidationError{
			Field:   "policy.max_batch",
			Value:   c.Policy.MaxBatch,
			Message: "must be at least 1",
		})
	}

	fractions := map[string]float64{
		"policy.transmit_fraction": c.Policy.TransmitFraction,
		"policy.think_fraction":    c.Policy.ThinkFraction,
		"policy.generate_fraction": c.Policy.GenerateFraction,
	}
	keys := make([]string, 0, len(fractions))
	for key := range fractions {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if f := fractions[key]; f < 0 || f > 1 {
			errs = append(errs, ValidationError{Field: key, Value: f, Message: "must be within [0, 1]"})
		}
	}

	if _, err := engine.ParseFailureMode(c.Policy.OnOracleFailure); err != nil {
		errs = append(errs, ValidationError{
			Field:   "policy.on_oracle_failure",
			Value:   c.Policy.OnOracleFailure,
			Message: "must be one of: halt, retry",
			Err:     err,
		})
	}
	if c.Policy.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "policy.max_retries",
			Value:   c.Policy.MaxRetries,
			Message: "must be non-negative",
		})
	}
	if c.Policy.TickYield < 0 {
		errs = append(errs, ValidationError{
			Field:   "policy.tick_yield",
			Value:   c.Policy.TickYield,
			Message: "must not be negative",
		})
	}

	return errs
}

func (c *Config) validateOracle() []ValidationError {
	if c.Oracle.MaxChildren < 1 {
		return []ValidationError{{
			Field:   "oracle.max_children",
			Value:   c.Oracle.MaxChildren,
			Message: "must be at least 1",
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		return []ValidationError{{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		}}
	}
	return nil
}
