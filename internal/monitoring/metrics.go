// Package monitoring counts what happened to every pulled record and
// pushes the counts to a Prometheus Pushgateway at the end of a run.
package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const DEFAULT_PUSH_JOB = "redditcanon_ingest"

type Metrics struct {
	reg *prometheus.Registry

	records    *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	rows       *prometheus.GaugeVec
	duration   prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redditcanon_records_total",
			Help: "Records per category and outcome (pulled, accepted).",
		}, []string{"category", "outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redditcanon_rejected_total",
			Help: "Rejected records per category and reason.",
		}, []string{"category", "reason"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redditcanon_duplicates_total",
			Help: "Accepted records dropped as duplicate keys.",
		}, []string{"category"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "redditcanon_table_rows",
			Help: "Rows written per output table.",
		}, []string{"table"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "redditcanon_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
	}
	m.reg.MustRegister(m.records, m.rejected, m.duplicates, m.rows, m.duration)
	return m
}

func (m *Metrics) Pulled(category string) {
	m.records.WithLabelValues(category, "pulled").Inc()
}

func (m *Metrics) Accepted(category string) {
	m.records.WithLabelValues(category, "accepted").Inc()
}

func (m *Metrics) Rejected(category, reason string) {
	m.rejected.WithLabelValues(category, reason).Inc()
}

func (m *Metrics) Duplicates(category string, n int) {
	m.duplicates.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) TableRows(table string, n int) {
	m.rows.WithLabelValues(table).Set(float64(n))
}

func (m *Metrics) RunDuration(d time.Duration) {
	m.duration.Set(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Push sends every collected metric to the gateway under job, grouped by
// source.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job, source string) error {
	if job == "" {
		job = DEFAULT_PUSH_JOB
	}
	err := push.New(gatewayURL, job).
		Gatherer(m.reg).
		Grouping("source", source).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("[Metrics] push to %s: %w", gatewayURL, err)
	}
	slog.Info("[Metrics] Pushed run metrics", slog.String("gateway", gatewayURL), slog.String("job", job))
	return nil
}
