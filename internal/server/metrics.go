package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

type metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	allocations *prometheus.CounterVec
	complement  *prometheus.HistogramVec
	chat        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundeb_http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundeb_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		allocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundeb_allocations_total",
				Help: "Allocations computed, by kind (current or scenario) and mode",
			},
			[]string{"kind", "mode"},
		),
		complement: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundeb_complement_brl",
				Help:    "Computed complement per category in BRL",
				Buckets: prometheus.ExponentialBuckets(1e5, 10, 7),
			},
			[]string{"category"},
		),
		chat: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundeb_chat_requests_total",
				Help: "Assistant requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *metrics) observeRequest(method, route string, status int, d time.Duration) {
	if status == 0 {
		status = 200
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *metrics) observeAllocation(kind string, r model.AllocationResult) {
	mode := "real"
	if r.Demo() {
		mode = "demo"
	}
	m.allocations.WithLabelValues(kind, mode).Inc()
	for _, cat := range model.Categories() {
		if cr := r.Category(cat); cr.Eligible {
			m.complement.WithLabelValues(string(cat)).Observe(cr.Total)
		}
	}
}
