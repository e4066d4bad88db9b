package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	scheduleOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutorsched",
			Name:      "schedule_outcomes_total",
			Help:      "Count of proposed time blocks by owner kind and outcome.",
		},
		[]string{"owner_kind", "outcome"},
	)

	parseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutorsched",
			Name:      "timespec_parse_failures_total",
			Help:      "Count of time strings that could not be parsed.",
		},
		[]string{"reason"},
	)

	scheduleBlocks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tutorsched",
			Name:      "schedule_blocks",
			Help:      "Number of stored time blocks by owner kind.",
		},
		[]string{"owner_kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(scheduleOutcomes, parseFailures, scheduleBlocks)
	})
}

func IncOutcome(ownerKind, outcome string) {
	scheduleOutcomes.WithLabelValues(ownerKind, outcome).Inc()
}

func IncParseFailure(reason string) {
	parseFailures.WithLabelValues(reason).Inc()
}

func AddBlocks(ownerKind string, delta int) {
	scheduleBlocks.WithLabelValues(ownerKind).Add(float64(delta))
}
