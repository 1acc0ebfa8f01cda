package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "maintcal"
)

var (
	GenerateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "generate", "duration_seconds"),
		Help:    "Duration of calendar generation in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	GenerateRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "generate", "runs_total"),
		Help: "Calendar generation runs by trigger and outcome",
	}, []string{"trigger", "outcome"})
	GeneratedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "generate", "events"),
		Help: "Events produced by the last generation",
	})
	SkippedOccurrences = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "generate", "skipped_occurrences"),
		Help: "Occurrences dropped by the monthly limit in the last generation",
	})
	CapacityOverflows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "generate", "capacity_overflows"),
		Help: "Events placed over the daily ceiling in the last generation",
	})
	TruncatedRequirements = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "generate", "truncated_requirements"),
		Help: "Requirements that hit the occurrence cap in the last generation",
	})
	MonthlyTargetHours = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "generate", "monthly_target_hours"),
		Help: "Target technician-hours per month of the last generation",
	})
	CalendarMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "calendar", "mutations_total"),
		Help: "Manual calendar mutations by operation",
	}, []string{"op"})
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "source", "fetches_total"),
		Help: "Remote requirement fetches by result (fetched, not_modified, cached, error)",
	}, []string{"result"})
)
