package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	refreshSuccess = "success"
	refreshFailure = "failure"
	refreshReused  = "reused"
)

// Metrics counts client traffic. A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewMetrics creates the client counters and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantclassifier",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "HTTP requests issued by the API client, by method and status code (0 for transport failures).",
		}, []string{"method", "code"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantclassifier",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Credential refresh outcomes.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.refreshes)
	}
	return m
}

func (m *Metrics) observeRequest(method string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}
