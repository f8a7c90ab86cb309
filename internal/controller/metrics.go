package controller

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instruments a Server or Client publishes.
// Passing a nil *Metrics into NewServer/NewClient disables instrumentation
// entirely; every method on it is a nil-safe no-op.
type Metrics struct {
	CurrentLoad       prometheus.Gauge
	SafeLoad          prometheus.Gauge
	FramesBehind      prometheus.Gauge
	HashMismatchTotal prometheus.Counter
}

// NewMetrics registers one gauge/counter set under role ("server" or
// "client") and returns it. Call with a fresh prometheus.NewRegistry() in
// tests to avoid colliding with the default global registry.
func NewMetrics(reg prometheus.Registerer, role string) *Metrics {
	m := &Metrics{
		CurrentLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trailsim",
			Subsystem: role,
			Name:      "current_load",
			Help:      "Rolling-mean tick duration as a fraction of the target tick period.",
		}),
		SafeLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trailsim",
			Subsystem: role,
			Name:      "safe_load",
			Help:      "current_load inflated by the configured load buffer factor.",
		}),
		FramesBehind: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trailsim",
			Subsystem: role,
			Name:      "frames_behind",
			Help:      "Most recent client/server frame offset observed during clock sync.",
		}),
		HashMismatchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailsim",
			Subsystem: role,
			Name:      "hash_mismatch_total",
			Help:      "Number of times a peer-reported hash disagreed with the local trailing hash.",
		}),
	}
	reg.MustRegister(m.CurrentLoad, m.SafeLoad, m.FramesBehind, m.HashMismatchTotal)
	return m
}

func (m *Metrics) setLoad(current, safe float64) {
	if m == nil {
		return
	}
	m.CurrentLoad.Set(current)
	m.SafeLoad.Set(safe)
}

func (m *Metrics) setFramesBehind(v float64) {
	if m == nil {
		return
	}
	m.FramesBehind.Set(v)
}

func (m *Metrics) incHashMismatch() {
	if m == nil {
		return
	}
	m.HashMismatchTotal.Inc()
}
