package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/infrastructure/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestFiberMiddleware_RegistraRutaYEstado(t *testing.T) {
	m := metrics.New()
	app := fiber.New()
	app.Use(m.FiberMiddleware())
	app.Get("/test/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusTeapot) })
	app.Get("/metrics", m.FiberHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test/42", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `crm_http_requests_total{code="418",route="/test/:id"} 1`)
}

func TestMiddleware_Chi(t *testing.T) {
	m := metrics.New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	rc := chi.NewRouteContext()
	rc.RoutePatterns = append(rc.RoutePatterns, "/generate-poster")
	req := httptest.NewRequest(http.MethodPost, "/generate-poster", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	h.ServeHTTP(httptest.NewRecorder(), req)

	body := scrape(t, m)
	assert.Contains(t, body, `crm_http_requests_total{code="400",route="/generate-poster"} 1`)
	assert.Contains(t, body, `crm_http_request_duration_seconds_bucket{route="/generate-poster"`)
}

func TestContadoresDeDominio(t *testing.T) {
	m := metrics.New()
	m.AccountOutcome("created")
	m.AccountOutcome("created")
	m.AccountOutcome("skipped")
	m.ImportedRows("experts", 7)
	m.ImportedRows("experts", 0)
	m.PosterRequest(200)

	body := scrape(t, m)
	assert.Contains(t, body, `crm_accounts_provisioned_total{outcome="created"} 2`)
	assert.Contains(t, body, `crm_accounts_provisioned_total{outcome="skipped"} 1`)
	assert.Contains(t, body, `crm_import_rows_total{data_type="experts"} 7`)
	assert.Contains(t, body, `crm_poster_requests_total{code="200"} 1`)
}

func TestMetricsNil_NoEntraEnPanico(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.AccountOutcome("failed")
		m.ImportedRows("customers", 3)
	})
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
