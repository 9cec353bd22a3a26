package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"triz/metrics"
	"triz/oracle"
	"triz/searcher"
	"triz/tree"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCompleted
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type Option func(e *Engine)

func WithOracle(o oracle.Oracle) Option {
	return func(e *Engine) {
		if o != nil {
			e.oracle = o
		}
	}
}

func WithBatchSizer(sizer searcher.BatchSizer) Option {
	return func(e *Engine) {
		if sizer != nil {
			e.sizer = sizer
		}
	}
}

func WithPacing(pacing Pacing) Option {
	return func(e *Engine) {
		e.pacing = pacing
	}
}

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(e *Engine) {
		if policy.MaxRetries < 0 {
			policy.MaxRetries = 0
		}
		e.failure = policy
	}
}

// WithTickYield sets the pause between a merge and the next selection.
func WithTickYield(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickYield = d
		}
	}
}

func WithRootPrompt(prompt string) Option {
	return func(e *Engine) {
		e.rootPrompt = prompt
	}
}

// WithTree starts the engine from an existing tree instead of a fresh root.
func WithTree(root *tree.Node) Option {
	return func(e *Engine) {
		e.initial = root
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(e *Engine) {
		if collector != nil {
			e.metrics = collector
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observers = append(e.observers, observer)
		}
	}
}

// Engine owns one expansion tree and drives ticks over it.
// At most one run is active at a time; snapshots can be read from any goroutine.
type Engine struct {
	oracle     oracle.Oracle
	sizer      searcher.BatchSizer
	pacing     Pacing
	failure    FailurePolicy
	tickYield  time.Duration
	rootPrompt string
	initial    *tree.Node
	logger     zerolog.Logger
	metrics    metrics.Collector
	observers  []Observer

	tree   atomic.Pointer[tree.Node]
	state  atomic.Pointer[ProcessorState]
	config atomic.Pointer[Config]

	// Raised by Cancel, observed at every suspension boundary
	cancelled atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
	err     error
	lastRun metrics.RunMetric
}

func New(options ...Option) *Engine {
	e := &Engine{ // Default values
		oracle:  oracle.NewRandom(),
		sizer:   searcher.NewRandomBatch(searcher.DefaultMaxBatch, 0),
		pacing:  DefaultPacing,
		failure: FailurePolicy{Mode: HaltOnFailure},
		logger:  log.Logger,
		metrics: metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(e)
	}

	root := e.initial
	if root == nil {
		root = tree.NewRoot(e.rootPrompt)
	}
	e.tree.Store(root)
	idle := idleState()
	e.state.Store(&idle)
	cfg := DefaultConfig()
	e.config.Store(&cfg)
	return e
}

func (e *Engine) Tree() *tree.Node {
	return e.tree.Load()
}

func (e *Engine) State() ProcessorState {
	return *e.state.Load()
}

func (e *Engine) Config() Config {
	return *e.config.Load()
}

func (e *Engine) Stats() tree.Stats {
	return tree.ComputeStats(e.Tree())
}

// LastRun returns the metric of the most recently finished run.
func (e *Engine) LastRun() metrics.RunMetric {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastRun
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.running
}

// SetConfig replaces the configuration; an active run picks it up at its next tick.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.config.Store(&cfg)
	return nil
}

// Run expands the tree until nothing is eligible, the run is cancelled or the
// oracle fails. It blocks until the run ends.
func (e *Engine) Run(ctx context.Context, cfg Config) (Outcome, error) {
	runCtx, err := e.begin(ctx, cfg)
	if err != nil {
		return OutcomeNone, err
	}
	outcome, err := e.loop(runCtx)
	e.finish(outcome, err)
	return outcome, err
}

// Start runs in the background. Use Wait to collect the outcome.
func (e *Engine) Start(ctx context.Context, cfg Config) error {
	runCtx, err := e.begin(ctx, cfg)
	if err != nil {
		return err
	}
	go func() {
		outcome, err := e.loop(runCtx)
		e.finish(outcome, err)
	}()
	return nil
}

// Wait blocks until the current or last run ends.
func (e *Engine) Wait() (Outcome, error) {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return OutcomeNone, nil
	}
	<-done

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcome, e.err
}

// Cancel stops the active run at its next suspension boundary. The in-flight
// tick is discarded. A later Run resumes from the published tree.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Reset replaces the tree with a fresh root. It is refused while a run is active.
func (e *Engine) Reset() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRunInProgress
	}
	root := tree.NewRoot(e.rootPrompt)
	e.tree.Store(root)
	e.mu.Unlock()

	e.publishState(idleState())
	e.notifyTree(root)
	e.logger.Info().Msg("system reset")
	return nil
}

func (e *Engine) begin(ctx context.Context, cfg Config) (context.Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil, ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	e.cancelled.Store(false)
	e.done = make(chan struct{})
	e.outcome, e.err = OutcomeNone, nil
	e.config.Store(&cfg)
	return runCtx, nil
}

func (e *Engine) finish(outcome Outcome, err error) {
	metric := e.metrics.Complete(outcome.String())

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel()
	e.cancel = nil
	e.running = false
	e.outcome, e.err = outcome, err
	e.lastRun = metric
	close(e.done)
}

func (e *Engine) loop(ctx context.Context) (Outcome, error) {
	cfg := e.Config()
	e.metrics.Start(cfg.MaxDepth, cfg.StepDelay)
	e.emit(Event{Kind: EventStarted, MaxDepth: cfg.MaxDepth, Stats: e.Stats()})

	for n := 1; ; n++ {
		outcome, stop, err := e.tick(ctx, n)
		if stop {
			return outcome, err
		}
		// Cancellation during the yield is picked up by the next tick
		e.hold(ctx, e.tickYield)
	}
}

// hold waits for d and reports whether the run may continue.
func (e *Engine) hold(ctx context.Context, d time.Duration) bool {
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	return !e.isCancelled(ctx)
}

func (e *Engine) isCancelled(ctx context.Context) bool {
	return e.cancelled.Load() || ctx.Err() != nil
}

func (e *Engine) publishState(state ProcessorState) {
	e.state.Store(&state)
	for _, o := range e.observers {
		o.OnProcessorStateChanged(state)
	}
}

func (e *Engine) notifyTree(root *tree.Node) {
	for _, o := range e.observers {
		o.OnTreeChanged(root)
	}
}

func (e *Engine) emit(event Event) {
	event.Time = time.Now()
	for _, o := range e.observers {
		o.OnTickEvent(event)
	}
}
