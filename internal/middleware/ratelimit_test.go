package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		nilClient     bool
		calls         int
		limit         int
		expectedAllow bool
		expectErr     bool
	}{
		{name: "Test Environment Bypass", env: "test", calls: 5, limit: 1, expectedAllow: true},
		{name: "Development Environment Bypass", env: "development", calls: 5, limit: 1, expectedAllow: true},
		{name: "Nil Redis Errors", env: "production", nilClient: true, calls: 1, limit: 1, expectErr: true},
		{name: "Under Limit", env: "production", calls: 2, limit: 3, expectedAllow: true},
		{name: "Over Limit", env: "production", calls: 4, limit: 3, expectedAllow: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)

			var rdb *redis.Client
			if !tt.nilClient {
				_, rdb = newMiniredisClient(t)
			}

			var allowed bool
			var err error
			for i := 0; i < tt.calls; i++ {
				allowed, err = CheckRateLimit(context.Background(), rdb, "write", "acct:0x1", tt.limit, time.Minute)
			}
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAllow, allowed)
		})
	}
}

func TestCheckRateLimitWindowExpires(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newMiniredisClient(t)
	ctx := context.Background()

	allowed, err := CheckRateLimit(ctx, rdb, "write", "ip:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = CheckRateLimit(ctx, rdb, "write", "ip:1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(2 * time.Minute)

	allowed, err = CheckRateLimit(ctx, rdb, "write", "ip:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, rdb := newMiniredisClient(t)

	app := fiber.New()
	app.Post("/write", RateLimit(rdb, 2, time.Minute, "write"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/write", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
		_ = resp.Body.Close()
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimitFailClosed(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	app := fiber.New()
	app.Post("/write", RateLimitWithPolicy(nil, 2, time.Minute, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/write", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
