package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/fundme/internal/logging"
)

type idempotencyApp struct {
	app     *fiber.App
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newIdempotencyApp(t *testing.T) *idempotencyApp {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	a := &idempotencyApp{app: fiber.New()}
	a.app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	a.app.Post("/fund", func(c *fiber.Ctx) error {
		n := a.calls.Add(1)
		if a.entered != nil {
			a.entered <- struct{}{}
			<-a.release
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"funded": n, "auth": c.Get(fiber.HeaderAuthorization)})
	})
	a.app.Post("/withdraw", func(c *fiber.Ctx) error {
		a.calls.Add(1)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"withdrawn": true})
	})
	a.app.Post("/fail", func(c *fiber.Ctx) error {
		a.calls.Add(1)
		return fiber.NewError(fiber.StatusBadRequest, "nope")
	})
	return a
}

func (a *idempotencyApp) post(t *testing.T, path, key, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	a := newIdempotencyApp(t)
	resp := a.post(t, "/fund", "", "alice")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, a.calls.Load())
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	a := newIdempotencyApp(t)

	first := a.post(t, "/fund", "abc123", "alice")
	require.Equal(t, fiber.StatusCreated, first.StatusCode)
	payload := readBody(t, first)

	second := a.post(t, "/fund", "abc123", "alice")
	require.Equal(t, fiber.StatusCreated, second.StatusCode)
	require.Equal(t, "true", second.Header.Get(replayedHeader))
	require.Equal(t, fiber.MIMEApplicationJSON, second.Header.Get(fiber.HeaderContentType))
	require.Equal(t, payload, readBody(t, second))
	require.EqualValues(t, 1, a.calls.Load())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
}

func TestIdempotencyKeyScopedToRoute(t *testing.T) {
	a := newIdempotencyApp(t)
	for _, path := range []string{"/fund", "/withdraw"} {
		resp := a.post(t, path, "shared", "alice")
		require.Empty(t, resp.Header.Get(replayedHeader), path)
		resp.Body.Close()
	}
	require.EqualValues(t, 2, a.calls.Load())
}

func TestIdempotencyKeyScopedToCaller(t *testing.T) {
	a := newIdempotencyApp(t)

	alice := a.post(t, "/fund", "shared", "alice")
	require.Equal(t, fiber.StatusCreated, alice.StatusCode)
	require.Contains(t, string(readBody(t, alice)), "Bearer alice")

	bob := a.post(t, "/fund", "shared", "bob")
	require.Equal(t, fiber.StatusCreated, bob.StatusCode)
	require.Empty(t, bob.Header.Get(replayedHeader))
	body := string(readBody(t, bob))
	require.Contains(t, body, "Bearer bob")
	require.NotContains(t, body, "alice")
	require.EqualValues(t, 2, a.calls.Load())
}

func TestIdempotencyConcurrentDuplicateConflicts(t *testing.T) {
	a := newIdempotencyApp(t)
	a.entered = make(chan struct{}, 1)
	a.release = make(chan struct{})

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(fiber.MethodPost, "/fund", strings.NewReader("{}"))
		req.Header.Set(idempotencyKeyHeader, "dup")
		req.Header.Set(fiber.HeaderAuthorization, "Bearer alice")
		resp, err := a.app.Test(req, -1)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	<-a.entered
	dup := a.post(t, "/fund", "dup", "alice")
	require.Equal(t, fiber.StatusConflict, dup.StatusCode)
	dup.Body.Close()

	close(a.release)
	require.Equal(t, fiber.StatusCreated, <-done)
	require.EqualValues(t, 1, a.calls.Load())
}

func TestIdempotencyFailedRequestCanRetry(t *testing.T) {
	a := newIdempotencyApp(t)
	for i := 0; i < 2; i++ {
		resp := a.post(t, "/fail", "retry", "alice")
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		require.Empty(t, resp.Header.Get(replayedHeader))
		resp.Body.Close()
	}
	require.EqualValues(t, 2, a.calls.Load())
}
