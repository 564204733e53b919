package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetricsRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)

	rec.Observe(context.Background(), "submit_score", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "submit_score", true, 30*time.Millisecond)
	rec.Observe(context.Background(), "transition_status", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, fam := range families {
		if fam.GetName() != "recitecore_operations_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				key += lp.GetValue() + "/"
			}
			byName[key] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, byName["submit_score/success/"])
	assert.Equal(t, 1.0, byName["transition_status/error/"])
	assert.Len(t, byName, 2)
}

func TestPrometheusMetricsRecorderRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	_, err = NewPrometheusMetricsRecorder(reg)
	require.Error(t, err)
}
