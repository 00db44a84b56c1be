// Package metrics registro de Prometheus de la API, del worker y del proxy de pósters.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa el registro propio y los contadores de la aplicación.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	accountsTotal   *prometheus.CounterVec
	importsTotal    *prometheus.CounterVec
	postersTotal    *prometheus.CounterVec
}

// New inicializa el registro y las métricas.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_http_requests_total",
		Help: "Peticiones HTTP por ruta y código de estado.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_http_request_duration_seconds",
		Help:    "Duración de las peticiones HTTP por ruta.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	accounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_accounts_provisioned_total",
		Help: "Altas de cuentas por desenlace (created, skipped, failed).",
	}, []string{"outcome"})
	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_import_rows_total",
		Help: "Filas importadas por tipo de datos.",
	}, []string{"data_type"})
	posters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_poster_requests_total",
		Help: "Solicitudes al proveedor de imágenes por código de estado.",
	}, []string{"code"})
	registry.MustRegister(requests, duration, accounts, imports, posters)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		accountsTotal:   accounts,
		importsTotal:    imports,
		postersTotal:    posters,
	}
}

// Handler http.Handler para /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// FiberHandler expone /metrics en Fiber.
func (m *Metrics) FiberHandler() fiber.Handler {
	return adaptor.HTTPHandler(m.Handler())
}

// FiberMiddleware registra cada petición de la API por ruta registrada.
func (m *Metrics) FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		if route == "" {
			route = "unknown"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Middleware equivalente para routers net/http (chi).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&rec, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// AccountOutcome implementa provisioning.Recorder.
func (m *Metrics) AccountOutcome(outcome string) {
	if m == nil {
		return
	}
	m.accountsTotal.WithLabelValues(outcome).Inc()
}

// ImportedRows suma filas escritas por una importación.
func (m *Metrics) ImportedRows(dataType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importsTotal.WithLabelValues(dataType).Add(float64(n))
}

// PosterRequest cuenta una llamada al proveedor de imágenes.
func (m *Metrics) PosterRequest(status int) {
	if m == nil {
		return
	}
	m.postersTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Registerer expone el registro para métricas adicionales.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}
