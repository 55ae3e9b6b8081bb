package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, maxPerWindow int, window time.Duration) *RateLimiter {
	t.Helper()
	rl := New(Config{
		MaxRequestsPerMinute: maxPerWindow,
		WindowDuration:       window,
		Logger:               zap.NewNop(),
	})
	t.Cleanup(rl.Stop)
	return rl
}

func TestAllowDepletesBucket(t *testing.T) {
	rl := newTestLimiter(t, 2, time.Minute)

	assert.True(t, rl.allow("caller-a"))
	assert.True(t, rl.allow("caller-a"))
	assert.False(t, rl.allow("caller-a"))
}

func TestAllowRefillsOverTime(t *testing.T) {
	// 10ms per token
	rl := newTestLimiter(t, 2, 20*time.Millisecond)

	require.True(t, rl.allow("caller-a"))
	require.True(t, rl.allow("caller-a"))
	require.False(t, rl.allow("caller-a"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.allow("caller-a"))
}

func TestBucketsAreIndependentPerKey(t *testing.T) {
	rl := newTestLimiter(t, 1, time.Minute)

	assert.True(t, rl.allow("session-a"))
	assert.False(t, rl.allow("session-a"))
	assert.True(t, rl.allow("session-b"))
}

func TestMiddlewareKeysBySessionHeader(t *testing.T) {
	rl := newTestLimiter(t, 1, time.Minute)

	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	do := func(sessionID string) int {
		req := httptest.NewRequest("GET", "/", nil)
		if sessionID != "" {
			req.Header.Set("X-Session-ID", sessionID)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	// two sessions behind the same IP each get their own budget
	assert.Equal(t, fiber.StatusOK, do("session-a"))
	assert.Equal(t, fiber.StatusTooManyRequests, do("session-a"))
	assert.Equal(t, fiber.StatusOK, do("session-b"))
}
