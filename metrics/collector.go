package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type TickMetric struct {
	Tick      int
	BatchSize int
	Generated int
	Probing   bool
	TreeSize  int // Node count after the merge
}

type RunMetric struct {
	MaxDepth      int
	StepDelay     time.Duration
	StartTime     time.Time
	Duration      time.Duration
	Ticks         int
	Generated     int
	Cancellations int
	Failures      int
	Outcome       string
	TickMetrics   []TickMetric
}

type Collector interface {
	Start(maxDepth int, stepDelay time.Duration)
	AddTick(tick TickMetric)
	AddCancelled()
	AddFailure()
	Complete(outcome string) RunMetric
}

type collector struct {
	maxDepth      int
	stepDelay     time.Duration
	startTime     time.Time
	ticks         atomic.Int32
	generated     atomic.Int32
	cancellations atomic.Int32
	failures      atomic.Int32

	mu          sync.Mutex
	tickMetrics []TickMetric
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(maxDepth int, stepDelay time.Duration) {
	m.startTime = time.Now()
	m.maxDepth = maxDepth
	m.stepDelay = stepDelay
	m.ticks.Store(0)
	m.generated.Store(0)
	m.cancellations.Store(0)
	m.failures.Store(0)

	m.mu.Lock()
	m.tickMetrics = nil
	m.mu.Unlock()
}

func (m *collector) AddTick(tick TickMetric) {
	m.ticks.Add(1)
	m.generated.Add(int32(tick.Generated))

	m.mu.Lock()
	m.tickMetrics = append(m.tickMetrics, tick)
	m.mu.Unlock()
}

func (m *collector) AddCancelled() {
	m.cancellations.Add(1)
}

func (m *collector) AddFailure() {
	m.failures.Add(1)
}

func (m *collector) Complete(outcome string) RunMetric {
	m.mu.Lock()
	ticks := make([]TickMetric, len(m.tickMetrics))
	copy(ticks, m.tickMetrics)
	m.mu.Unlock()

	return RunMetric{
		MaxDepth:      m.maxDepth,
		StepDelay:     m.stepDelay,
		StartTime:     m.startTime,
		Duration:      time.Since(m.startTime),
		Ticks:         int(m.ticks.Load()),
		Generated:     int(m.generated.Load()),
		Cancellations: int(m.cancellations.Load()),
		Failures:      int(m.failures.Load()),
		Outcome:       outcome,
		TickMetrics:   ticks,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(maxDepth int, stepDelay time.Duration) {}
func (m *dummyCollector) AddTick(tick TickMetric)                     {}
func (m *dummyCollector) AddCancelled()                               {}
func (m *dummyCollector) AddFailure()                                 {}
func (m *dummyCollector) Complete(outcome string) RunMetric           { return RunMetric{Outcome: outcome} }
