package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(scheduleOutcomes.WithLabelValues("room", "conflict"))
	IncOutcome("room", "conflict")
	IncOutcome("room", "conflict")
	assert.Equal(t, before+2, testutil.ToFloat64(scheduleOutcomes.WithLabelValues("room", "conflict")))

	before = testutil.ToFloat64(parseFailures.WithLabelValues("invalid-range"))
	IncParseFailure("invalid-range")
	assert.Equal(t, before+1, testutil.ToFloat64(parseFailures.WithLabelValues("invalid-range")))
}

func TestBlocksGauge(t *testing.T) {
	before := testutil.ToFloat64(scheduleBlocks.WithLabelValues("tutor"))
	AddBlocks("tutor", 3)
	AddBlocks("tutor", -1)
	assert.Equal(t, before+2, testutil.ToFloat64(scheduleBlocks.WithLabelValues("tutor")))
}
