package middleware

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequestIDAndAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestID(), Audit(logger))
	app.Get("/me", JWTAuth(staticVerifier{"good": testCaller}), func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFrom(c))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(requestIDHeader, "req-1")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-1", resp.Header.Get(requestIDHeader))

	line := buf.String()
	require.Contains(t, line, `"request_id":"req-1"`)
	require.Contains(t, line, testCaller.Hex())

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get(requestIDHeader))
	require.Contains(t, buf.String(), "request failed")
}
