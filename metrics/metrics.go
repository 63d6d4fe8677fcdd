// Package metrics exposes prometheus collectors for store activity.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "icestore"

// Outcome labels for finished effect runs.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics groups the collectors shared by every store built with it.
type Metrics struct {
	Dispatches *prometheus.CounterVec
	Runs       *prometheus.CounterVec
	InFlight   *prometheus.GaugeVec
	Duration   *prometheus.HistogramVec
	Broadcasts *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Collectors that
// are already registered are reused, so several stores may share reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effect_dispatches_total",
			Help:      "Effect actions dispatched.",
		}, []string{"model", "effect"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effect_runs_total",
			Help:      "Effect bodies that settled, by outcome.",
		}, []string{"model", "effect", "outcome"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "effect_runs_in_flight",
			Help:      "Effect bodies currently running.",
		}, []string{"model", "effect"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "effect_run_duration_seconds",
			Help:      "Time from effect start to settle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model", "effect"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Observer notifications sent, by slice.",
		}, []string{"model", "slice"}),
	}

	var err error
	if m.Dispatches, err = register(reg, m.Dispatches); err != nil {
		return nil, err
	}
	if m.Runs, err = register(reg, m.Runs); err != nil {
		return nil, err
	}
	if m.InFlight, err = register(reg, m.InFlight); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}
	if m.Broadcasts, err = register(reg, m.Broadcasts); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Dispatched counts one effect dispatch.
func (m *Metrics) Dispatched(model, effect string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(model, effect).Inc()
}

// RunStarted marks an effect body as running. The returned function records
// its settlement.
func (m *Metrics) RunStarted(model, effect string) func(err error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	m.InFlight.WithLabelValues(model, effect).Inc()
	return func(err error) {
		m.InFlight.WithLabelValues(model, effect).Dec()
		m.Duration.WithLabelValues(model, effect).Observe(time.Since(start).Seconds())
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeError
		}
		m.Runs.WithLabelValues(model, effect, outcome).Inc()
	}
}

// Broadcast counts notified observers for one slice of a store.
func (m *Metrics) Broadcast(model, slice string, observers int) {
	if m == nil || observers == 0 {
		return
	}
	m.Broadcasts.WithLabelValues(model, slice).Add(float64(observers))
}
