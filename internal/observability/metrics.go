package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/platform/envutil"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqError *Counter

	diagnostics      *CounterVec
	diagnosticSkills *HistogramVec
	progressWrites   *CounterVec

	aggregateOps      *HistogramVec
	aggregateConflict *CounterVec
	aggregateRetry    *CounterVec

	eventsPublished *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// Init builds the process-wide metrics set, or returns nil when METRICS_ENABLED is off.
// Every method tolerates a nil receiver.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("sdna_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"sdna_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("sdna_api_inflight_requests", "In-flight API requests."),
		apiReqError: NewCounter("sdna_api_requests_error_total", "API requests answered with a 5xx status."),

		diagnostics: NewCounterVec("sdna_diagnostics_total", "Diagnostic submissions by type/status.", []string{"type", "status"}),
		diagnosticSkills: NewHistogramVec(
			"sdna_diagnostic_resolved_competencies",
			"Competencies resolved per diagnostic submission.",
			[]string{"type"},
			[]float64{0, 1, 2, 5, 10, 20, 50},
		),
		progressWrites: NewCounterVec("sdna_progress_writes_total", "Progress row writes by source/kind.", []string{"source", "kind"}),

		aggregateOps: NewHistogramVec(
			"sdna_aggregate_operation_duration_seconds",
			"Transactional aggregate operation latency by operation/status.",
			[]string{"operation", "status"},
			nil,
		),
		aggregateConflict: NewCounterVec("sdna_aggregate_conflicts_total", "Aggregate write conflicts by operation.", []string{"operation"}),
		aggregateRetry:    NewCounterVec("sdna_aggregate_retries_total", "Aggregate write retries by operation.", []string{"operation"}),

		eventsPublished: NewCounterVec("sdna_events_published_total", "Progress events published by status.", []string{"status"}),

		dbStats:   NewGaugeVec("sdna_db_pool_stats", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("sdna_redis_up", "1 when the last Redis ping succeeded."),
		redisPing: NewGauge("sdna_redis_ping_seconds", "Latency of the last Redis ping."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.apiReqError,
		m.diagnostics,
		m.diagnosticSkills,
		m.progressWrites,
		m.aggregateOps,
		m.aggregateConflict,
		m.aggregateRetry,
		m.eventsPublished,
		m.dbStats,
		m.redisUp,
		m.redisPing,
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveDiagnostic(diagnosticType, status string, resolved int) {
	if m == nil {
		return
	}
	m.diagnostics.Inc(diagnosticType, status)
	if status == "success" {
		m.diagnosticSkills.Observe(float64(resolved), diagnosticType)
	}
}

// IncProgressWrite counts one progress row write; kind is "insert" or "update".
func (m *Metrics) IncProgressWrite(source, kind string) {
	if m == nil {
		return
	}
	m.progressWrites.Inc(source, kind)
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflict.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetry.Inc(op)
}

func (m *Metrics) IncEventPublished(status string) {
	if m == nil {
		return
	}
	m.eventsPublished.Inc(status)
}

// StartDBCollector samples connection pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb on every scrape interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	code, err := strconv.Atoi(status)
	return err == nil && code >= 500
}
