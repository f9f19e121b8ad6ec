package metrics

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCountersAccumulate(t *testing.T) {
	m := New(testLogger())

	m.FireDelivered("hourly")
	m.FireDelivered("hourly")
	m.ActionStarted("s1", "a1")
	m.ActionCompleted("s1", "a1", 0, 200*time.Millisecond)
	m.ActionCompleted("s1", "a1", 1, time.Second)
	m.ActionCompleted("s1", "a1", -15, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fires.WithLabelValues("hourly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("s1", "a1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.completions.WithLabelValues("s1", "a1", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.completions.WithLabelValues("s1", "a1", "failure")),
		"nonzero exits and signal deaths both count as failures")
}

func TestRegistryGathers(t *testing.T) {
	m := New(testLogger())
	m.FireDelivered("x")

	families, err := m.registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
