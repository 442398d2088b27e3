// Package metrics exposes pipeline counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docchat"

// Metrics groups the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	answers         *prometheus.CounterVec
	answerFailures  *prometheus.CounterVec
	rebuilds        *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	retrieveLatency prometheus.Histogram
	indexEntries    prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers returned, by mode.",
		}, []string{"mode"}),
		answerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_failures_total",
			Help:      "Failed answer attempts, by error kind.",
		}, []string{"kind"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_rebuilds_total",
			Help:      "Index builds, by result.",
		}, []string{"result"}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_rebuild_duration_seconds",
			Help:      "Time spent loading, chunking, embedding and writing the index.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		retrieveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieve_duration_seconds",
			Help:      "Time spent embedding the question and searching the index.",
			Buckets:   prometheus.DefBuckets,
		}),
		indexEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_entries",
			Help:      "Entries in the active index.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.answers, m.answerFailures, m.rebuilds,
		m.rebuildDuration, m.retrieveLatency, m.indexEntries,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveAnswer counts an answer as degraded, grounded or ungrounded.
func (m *Metrics) ObserveAnswer(degraded, grounded bool) {
	if m == nil {
		return
	}
	mode := "ungrounded"
	switch {
	case degraded:
		mode = "degraded"
	case grounded:
		mode = "grounded"
	}
	m.answers.WithLabelValues(mode).Inc()
}

func (m *Metrics) ObserveAnswerFailure(kind string) {
	if m == nil {
		return
	}
	m.answerFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRebuild(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.rebuilds.WithLabelValues(result).Inc()
	m.rebuildDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRetrieve(d time.Duration) {
	if m == nil {
		return
	}
	m.retrieveLatency.Observe(d.Seconds())
}

func (m *Metrics) SetIndexEntries(n int) {
	if m == nil {
		return
	}
	m.indexEntries.Set(float64(n))
}

// Serve exposes the registry on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
