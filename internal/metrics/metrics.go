package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studentia", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"route", "code"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studentia", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	LedgerCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studentia", Name: "ledger_calls_total", Help: "Ledger reads and writes by outcome",
	}, []string{"op", "outcome"})
	LedgerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studentia", Name: "ledger_call_seconds", Help: "Ledger call latency",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"op"})
	Decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studentia", Name: "disclosure_decisions_total", Help: "Disclosure decisions by reason",
	}, []string{"reason"})
	RequestTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studentia", Name: "access_request_transitions_total", Help: "Access request state changes",
	}, []string{"status"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "studentia", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, LedgerCalls, LedgerDuration, Decisions, RequestTransitions, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

// ObserveLedger records one ledger call
func ObserveLedger(op string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	LedgerCalls.WithLabelValues(op, outcome).Inc()
	LedgerDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
