package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	return app, m, reg
}

func TestPrometheusMiddleware_CountsByRoutePattern(t *testing.T) {
	app, m, _ := newPromApp(t)
	app.Get("/api/documents/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/api/documents/:id/permanent", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	_, err := app.Test(httptest.NewRequest("GET", "/api/documents/123", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/api/documents/456", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("DELETE", "/api/documents/123/permanent", nil))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/api/documents/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("DELETE", "/api/documents/:id/permanent", "204")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestPrometheusMiddleware_FiberErrorStatus(t *testing.T) {
	app, m, _ := newPromApp(t)
	app.Get("/api/documents", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	})

	_, err := app.Test(httptest.NewRequest("GET", "/api/documents", nil))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/api/documents", "401")))
}

func TestPrometheusMiddleware_ExcludesMetricsEndpoint(t *testing.T) {
	app, _, reg := newPromApp(t)
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	_, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
