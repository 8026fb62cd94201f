package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	tradesFetched   prometheus.Counter
	tradesStored    prometheus.Counter
	rowsDropped     *prometheus.CounterVec
	alertsCreated   *prometheus.CounterVec
	budgetExhausted prometheus.Counter
	marketsResolved prometheus.Counter
	marketsTouched  prometheus.Counter
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		tradesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whalewatch_trades_fetched_total",
			Help: "Raw trade rows fetched from the upstream feed",
		}),
		tradesStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whalewatch_trades_stored_total",
			Help: "Trade rows newly inserted into the store",
		}),
		rowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whalewatch_rows_dropped_total",
				Help: "Raw rows rejected during normalization, by reason",
			},
			[]string{"reason"},
		),
		alertsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whalewatch_alerts_created_total",
				Help: "Alerts newly inserted, by type",
			},
			[]string{"type"},
		),
		budgetExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whalewatch_alert_budget_exhausted_total",
			Help: "Pages that hit the hourly alert ceiling",
		}),
		marketsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whalewatch_markets_resolved_total",
			Help: "Markets persisted as resolved with a winner",
		}),
		marketsTouched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whalewatch_markets_touched_total",
			Help: "Markets rotated by a resolution check without resolving",
		}),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whalewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whalewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTradesFetched(n int) {
	r.tradesFetched.Add(float64(n))
}

func (r *Recorder) RecordTradesStored(n int) {
	r.tradesStored.Add(float64(n))
}

func (r *Recorder) RecordRowDropped(reason string) {
	r.rowsDropped.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordAlert(alertType string) {
	r.alertsCreated.WithLabelValues(alertType).Inc()
}

func (r *Recorder) RecordBudgetExhausted() {
	r.budgetExhausted.Inc()
}

func (r *Recorder) RecordMarketResolved() {
	r.marketsResolved.Inc()
}

func (r *Recorder) RecordMarketTouched() {
	r.marketsTouched.Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
