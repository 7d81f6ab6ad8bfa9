package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// ActivityMetrics adds ledger counters to the operation metrics.
type ActivityMetrics interface {
	OperationMetrics
	RecordDistanceLogged(ctx context.Context, km float64)
}

// Activity is the Prometheus implementation of ActivityMetrics.
type Activity struct {
	*Operation
	records  prometheus.Counter
	distance prometheus.Counter
}

func NewActivity(reg prometheus.Registerer) *Activity {
	m := &Activity{
		Operation: NewOperation(reg, "activity"),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "records_total",
			Help:      "Activity records appended to the ledger.",
		}),
		distance: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "distance_km_total",
			Help:      "Kilometres appended to the ledger.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.records, m.distance)
	}
	return m
}

func (m *Activity) RecordDistanceLogged(_ context.Context, km float64) {
	m.records.Inc()
	m.distance.Add(km)
}

// LeaderboardMetrics adds weekly report counters to the operation metrics.
type LeaderboardMetrics interface {
	OperationMetrics
	RecordReportDelivered(ctx context.Context)
	RecordReportFailed(ctx context.Context)
}

// Leaderboard is the Prometheus implementation of LeaderboardMetrics.
type Leaderboard struct {
	*Operation
	reports *prometheus.CounterVec
}

func NewLeaderboard(reg prometheus.Registerer) *Leaderboard {
	m := &Leaderboard{
		Operation: NewOperation(reg, "leaderboard"),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "weekly_reports_total",
			Help:      "Per-user weekly reports by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.reports)
	}
	return m
}

func (m *Leaderboard) RecordReportDelivered(context.Context) {
	m.reports.WithLabelValues("delivered").Inc()
}

func (m *Leaderboard) RecordReportFailed(context.Context) {
	m.reports.WithLabelValues("failed").Inc()
}
