package handler

import (
	"time"

	"github.com/civicpulse/mayoralert/metrics"
)

// Option is a functional option for configuring an AlertHandler.
type Option func(*options)

type options struct {
	metrics *metrics.Metrics
	clock   func() time.Time
}

func newOptions() *options {
	return &options{
		clock: time.Now,
	}
}

// WithMetrics records created and deleted alerts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock sets the clock used to timestamp new alerts. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}
