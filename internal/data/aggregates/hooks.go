package aggregates

import (
	"time"

	"github.com/yungbote/skillsdna-backend/internal/observability"
)

// Hooks receives aggregate outcomes. Implementations must be safe for concurrent use.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
	// IncWrite counts a committed-or-pending row write; kind is "insert" or "update".
	IncWrite(source, kind string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}
func (noopHooks) IncWrite(string, string)                        {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewMetricsHooks reports aggregate outcomes to metrics; nil metrics yields no-op hooks.
func NewMetricsHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(name, status, dur)
}

func (h metricsHooks) IncConflict(name string) { h.metrics.IncAggregateConflict(name) }
func (h metricsHooks) IncRetry(name string)    { h.metrics.IncAggregateRetry(name) }

func (h metricsHooks) IncWrite(source, kind string) {
	h.metrics.IncProgressWrite(source, kind)
}
