package middleware

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		rid := c.Locals(RequestIDLocalKey).(string)
		if RequestIDFromContext(c.UserContext()) != rid {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(rid)
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Logger(zap.New(core)))

	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		c.Locals(ErrorLocalKey, errors.New("db down"))
		return c.SendStatus(fiber.StatusInternalServerError)
	})
	app.Get("/denied", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnauthorized, "nope")
	})

	t.Run("success", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/ok", nil))
		assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		e := entries[0]
		assert.Equal(t, "http_request", e.Message)
		assert.Equal(t, zapcore.InfoLevel, e.Level)

		fields := e.ContextMap()
		assert.NotEmpty(t, fields["request_id"])
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/ok", fields["path"])
		assert.Equal(t, int64(fiber.StatusAccepted), fields["status"])
		assert.Contains(t, fields, "latency_ms")
	})

	t.Run("server error carries cause", func(t *testing.T) {
		app.Test(httptest.NewRequest("GET", "/fail", nil))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "db down", entries[0].ContextMap()["error"])
	})

	t.Run("fiber error status", func(t *testing.T) {
		app.Test(httptest.NewRequest("GET", "/denied", nil))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, int64(fiber.StatusUnauthorized), entries[0].ContextMap()["status"])
	})
}

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestJWT(t *testing.T) {
	secret := []byte("test-secret")
	app := fiber.New()
	app.Use(JWT(secret))
	app.Get("/me", func(c *fiber.Ctx) error { return c.SendString(OwnerID(c)) })

	valid := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			header:     "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, valid),
			wantStatus: fiber.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "lowercase scheme",
			header:     "bearer " + signToken(t, secret, jwt.SigningMethodHS256, valid),
			wantStatus: fiber.StatusOK,
			wantBody:   "u1",
		},
		{name: "missing header", wantStatus: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic dTE6cGFzcw==", wantStatus: fiber.StatusUnauthorized},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, valid),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "other algorithm",
			header:     "Bearer " + signToken(t, secret, jwt.SigningMethodHS512, valid),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name: "expired",
			header: "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name: "no expiry",
			header: "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject: "u1",
			}),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name: "no subject",
			header: "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			wantStatus: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantBody != "" {
				buf := new(bytes.Buffer)
				buf.ReadFrom(resp.Body)
				assert.Equal(t, tt.wantBody, buf.String())
			}
		})
	}
}
