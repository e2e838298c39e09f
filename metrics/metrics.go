// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mayoralert"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	alertsCreated prometheus.Counter
	alertsDeleted prometheus.Counter
	httpRequests  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		alertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Number of mayor alerts created.",
		}),
		alertsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_deleted_total",
			Help:      "Number of mayor alerts deleted.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
	}

	for _, c := range []prometheus.Collector{m.alertsCreated, m.alertsDeleted, m.httpRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) AlertCreated() {
	if m == nil {
		return
	}

	m.alertsCreated.Inc()
}

func (m *Metrics) AlertDeleted() {
	if m == nil {
		return
	}

	m.alertsDeleted.Inc()
}

// Middleware counts every request once it has been handled. Unmatched
// routes are recorded with an empty route label.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if m == nil {
			return
		}

		m.httpRequests.WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
	}
}
