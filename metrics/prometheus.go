package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "triz"

// promCollector records into Prometheus on top of the in-memory run metric.
type promCollector struct {
	Collector

	ticks     prometheus.Counter
	generated prometheus.Counter
	failures  prometheus.Counter
	batchSize prometheus.Histogram
	runs      *prometheus.CounterVec
	treeSize  prometheus.Gauge
}

// NewPrometheusCollector registers its metrics with reg. A nil reg leaves
// them unregistered.
func NewPrometheusCollector(reg prometheus.Registerer) Collector {
	factory := promauto.With(reg)
	return &promCollector{
		Collector: NewCollector(),
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks merged into the tree.",
		}),
		generated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_generated_total",
			Help:      "Child nodes produced by the oracle and merged.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "Ticks abandoned because the oracle failed.",
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Nodes expanded per tick.",
			Buckets:   prometheus.LinearBuckets(1, 1, 4),
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome.",
		}, []string{"outcome"}),
		treeSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Node count of the last published tree.",
		}),
	}
}

func (p *promCollector) AddTick(tick TickMetric) {
	p.Collector.AddTick(tick)
	p.ticks.Inc()
	p.generated.Add(float64(tick.Generated))
	p.batchSize.Observe(float64(tick.BatchSize))
	p.treeSize.Set(float64(tick.TreeSize))
}

func (p *promCollector) AddFailure() {
	p.Collector.AddFailure()
	p.failures.Inc()
}

func (p *promCollector) Complete(outcome string) RunMetric {
	p.runs.WithLabelValues(outcome).Inc()
	return p.Collector.Complete(outcome)
}
