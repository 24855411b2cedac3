package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	tokenIssued   = "issued"
	tokenRotated  = "rotated"
	tokenRejected = "rejected"
	tokenRevoked  = "revoked"
)

// Metrics holds the server counters exposed on /metrics.
type Metrics struct {
	requestTotal *prometheus.CounterVec
	tokenEvents  *prometheus.CounterVec
	predictions  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantclassifier",
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		tokenEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantclassifier",
			Subsystem: "server",
			Name:      "token_events_total",
			Help:      "Refresh token lifecycle events",
		}, []string{"event"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantclassifier",
			Subsystem: "server",
			Name:      "predictions_total",
			Help:      "Analysed images by requesting role",
		}, []string{"role"}),
	}
	for _, c := range []prometheus.Collector{m.requestTotal, m.tokenEvents, m.predictions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordRequest(method, route string, status int) {
	m.requestTotal.With(prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}).Inc()
}

func (m *Metrics) recordToken(event string) {
	m.tokenEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) recordPrediction(role string) {
	m.predictions.WithLabelValues(role).Inc()
}
