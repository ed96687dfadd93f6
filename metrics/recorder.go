// Package metrics exports contact operation counters and store latencies to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vortex-fintech/contacts/contact"
)

const Namespace = "contacts"

var _ contact.Observer = (*Recorder)(nil)

// Recorder implements contact.Observer.
//
// Metrics registered:
//   - contacts_operations_total{op, outcome} - finished operations by outcome
//   - contacts_store_duration_seconds{op} - latency of operations that reached the store
type Recorder struct {
	ops   *prometheus.CounterVec
	store *prometheus.HistogramVec
}

// New registers the collectors on reg. Registering twice on the same
// registry reuses the collectors already there.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, errors.New("metrics: prometheus registerer is nil")
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "operations_total",
		Help:      "Finished contact operations by outcome",
	}, []string{"op", "outcome"})

	store := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "store_duration_seconds",
		Help:      "Duration of contact operations that reached the store",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"op"})

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if store, err = register(reg, store); err != nil {
		return nil, err
	}
	return &Recorder{ops: ops, store: store}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("metrics: register collector: %w", err)
	}
	return c, nil
}

func (r *Recorder) Observe(op, outcome string, d time.Duration) {
	r.ops.WithLabelValues(op, outcome).Inc()
	switch outcome {
	case contact.OutcomeInvalid, contact.OutcomeMalformed:
		// Rejected before any store access.
	default:
		r.store.WithLabelValues(op).Observe(d.Seconds())
	}
}

// WriteTextfile dumps g in the text exposition format, for the node_exporter
// textfile collector. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
