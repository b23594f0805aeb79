package txn

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "quotecatalog_txn"

// Outcome labels
const (
	outcomeSuccess    = "success"
	outcomeDomain     = "domain_error"
	outcomeRetryLimit = "retry_limit"
	outcomeStorage    = "storage_failure"
)

// Collector is a prometheus.Collector for the retry engine
type Collector struct {
	attempts  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
}

// NewCollector returns a new Collector
func NewCollector() *Collector {
	return &Collector{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "attempts_total",
				Help:      "The number of transactions opened per operation.",
			}, []string{"op"},
		),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "conflicts_total",
				Help:      "The number of attempts that ended in a serialization or unique-key conflict.",
			}, []string{"op"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "outcomes_total",
				Help:      "The final result of each operation.",
			}, []string{"op", "outcome"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.attempts.Describe(ch)
	c.conflicts.Describe(ch)
	c.outcomes.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.attempts.Collect(ch)
	c.conflicts.Collect(ch)
	c.outcomes.Collect(ch)
}

func (c *Collector) observeAttempt(op string) {
	if c == nil {
		return
	}
	c.attempts.WithLabelValues(op).Inc()
}

func (c *Collector) observeConflict(op string) {
	if c == nil {
		return
	}
	c.conflicts.WithLabelValues(op).Inc()
}

func (c *Collector) observeOutcome(op, outcome string) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(op, outcome).Inc()
}
