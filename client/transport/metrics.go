package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client-side request collectors.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg, reusing
// collectors that are already registered under the same names. A nil reg
// uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "requests_total",
		Help:      "Total number of outgoing HTTP requests.",
	}, []string{"code", "method"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "request_duration_seconds",
		Help:      "Outgoing HTTP request latency until response headers arrive.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method"})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "in_flight_requests",
		Help:      "Outgoing HTTP requests currently awaiting a response.",
	})

	var m Metrics
	var err error

	if m.Requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if m.InFlight, err = register(reg, inFlight); err != nil {
		return nil, err
	}

	return &m, nil
}

// Middleware instruments the wrapped transport.
func (m *Metrics) Middleware() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return promhttp.InstrumentRoundTripperInFlight(m.InFlight,
			promhttp.InstrumentRoundTripperCounter(m.Requests,
				promhttp.InstrumentRoundTripperDuration(m.Duration, next),
			),
		)
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	var zero C
	return zero, fmt.Errorf("registering metrics: %w", err)
}
