//go:build integration

package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"account-api/pkg/cerror"
	"account-api/pkg/config"
	"account-api/pkg/response"
)

func TestLimiter_Middleware(t *testing.T) {
	ctx := context.Background()
	client := setupRedisClient(t, ctx)

	limiter := NewLimiter(client, config.RateLimitConfig{
		Capacity:       2,
		RefillInterval: time.Minute,
		Ttl:            time.Minute,
	})

	app := fiber.New(fiber.Config{ErrorHandler: cerror.Middleware})
	app.Post("/login", limiter.Middleware(), func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get(HeaderLimit))
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
	require.NoError(t, err)

	var envelope response.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, MessageTooManyRequests, envelope.Message)
	assert.Equal(t, "0", resp.Header.Get(HeaderRemaining))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	client := setupRedisClient(t, ctx)

	limiter := NewLimiter(client, config.RateLimitConfig{
		Capacity:       1,
		RefillInterval: 200 * time.Millisecond,
		Ttl:            time.Minute,
	})

	decision, err := limiter.Allow(ctx, "refill")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = limiter.Allow(ctx, "refill")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))

	time.Sleep(250 * time.Millisecond)

	decision, err = limiter.Allow(ctx, "refill")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func setupRedisClient(t *testing.T, ctx context.Context) *redis.Client {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections"),
			wait.ForListeningPort("6379/tcp"),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })

	return client
}
