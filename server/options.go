package server

import (
	"errors"
	"time"

	"github.com/civicpulse/mayoralert/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Option is a functional option for configuring a Server.
type Option func(*options)

type options struct {
	addr              string
	corsOrigins       []string
	shutdownTimeout   time.Duration
	readHeaderTimeout time.Duration
	healthTimeout     time.Duration
	metrics           *metrics.Metrics
	gatherer          prometheus.Gatherer
}

func newOptions() *options {
	return &options{
		addr:              ":5000",
		corsOrigins:       []string{"*"},
		shutdownTimeout:   10 * time.Second,
		readHeaderTimeout: 10 * time.Second,
		healthTimeout:     2 * time.Second,
	}
}

func WithAddr(addr string) Option {
	return func(o *options) { o.addr = addr }
}

// WithCORSOrigins sets the origins allowed by CORS. "*" allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(o *options) { o.corsOrigins = origins }
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(o *options) { o.readHeaderTimeout = d }
}

func WithHealthTimeout(d time.Duration) Option {
	return func(o *options) { o.healthTimeout = d }
}

// WithMetrics enables request and alert counters, and serves the collectors
// gathered by g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(o *options) {
		o.metrics = m
		o.gatherer = g
	}
}

func (o *options) validate() error {
	if o.addr == "" {
		return errors.New("listen address is required")
	}

	if len(o.corsOrigins) == 0 {
		return errors.New("at least one CORS origin is required")
	}

	if o.shutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be greater than zero")
	}

	if o.readHeaderTimeout <= 0 {
		return errors.New("read header timeout must be greater than zero")
	}

	if o.healthTimeout <= 0 {
		return errors.New("health timeout must be greater than zero")
	}

	return nil
}
