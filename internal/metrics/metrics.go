// Package metrics exposes Prometheus collectors for HTTP traffic and for
// the registration workflow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UsersRegisteredTotal prometheus.Counter
	RegistrationsTotal   *prometheus.CounterVec
	OrdersCreatedTotal   prometheus.Counter
	PaymentsSettledTotal *prometheus.CounterVec
	SchedulerJobDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: []float64{0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "path"}),
		UsersRegisteredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tournament_users_registered_total",
			Help: "Accounts created through sign-up.",
		}),
		RegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tournament_registrations_total",
			Help: "Tournament registrations created, by path (free or paid).",
		}, []string{"path"}),
		OrdersCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tournament_payment_orders_created_total",
			Help: "Payment orders created for paid tournaments.",
		}),
		PaymentsSettledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tournament_payments_settled_total",
			Help: "Orders that reached a terminal status, by status.",
		}, []string{"status"}),
		SchedulerJobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tournament_scheduler_job_duration_seconds",
			Help:    "Duration of background maintenance jobs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UsersRegisteredTotal,
		m.RegistrationsTotal,
		m.OrdersCreatedTotal,
		m.PaymentsSettledTotal,
		m.SchedulerJobDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records count and latency per route template. Requests that
// matched no route are skipped to keep label cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				return nil
			}
			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
