package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveAnswer(false, true)
	m.ObserveAnswer(false, true)
	m.ObserveAnswer(false, false)
	m.ObserveAnswer(true, false)
	m.ObserveAnswerFailure("generation")
	m.ObserveRebuild(nil, time.Second)
	m.ObserveRebuild(errors.New("x"), time.Second)
	m.ObserveRetrieve(10 * time.Millisecond)
	m.SetIndexEntries(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.answers.WithLabelValues("grounded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("ungrounded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answerFailures.WithLabelValues("generation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rebuilds.WithLabelValues("failure")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.indexEntries))
	assert.Equal(t, 2, testutil.CollectAndCount(m.rebuilds))
}

func TestMetrics_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnswer(true, false)
		m.ObserveAnswerFailure("x")
		m.ObserveRebuild(nil, 0)
		m.ObserveRetrieve(0)
		m.SetIndexEntries(1)
	})
}
