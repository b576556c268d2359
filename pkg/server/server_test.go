//go:build unit

package server

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-api/pkg/cerror"
	"account-api/pkg/config"
	"account-api/pkg/response"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/ping", func(ctx *fiber.Ctx) error {
		return response.Send(ctx, fiber.StatusOK, nil, "pong")
	})
	app.Post("/echo", func(ctx *fiber.Ctx) error {
		return ctx.Send(ctx.Body())
	})
	app.Get("/ip", func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.IP())
	})
}

func TestServer(t *testing.T) {
	t.Run("should create server instance and return server instance", func(t *testing.T) {
		cfg := &config.Config{
			ServerPort: "8080",
		}

		var handlers []Handler
		testServer := NewServer(cfg, handlers)

		assert.IsType(t, &server{}, testServer)
	})

	t.Run("should server start and stop", func(t *testing.T) {
		cfg := &config.Config{
			ServerPort: "8080",
		}

		var handlers []Handler
		testServer := NewServer(cfg, handlers)

		go func() {
			err := testServer.Start()
			assert.NoError(t, err)
		}()

		err := testServer.Shutdown()
		assert.NoError(t, err)
	})
}

func TestServer_GetFiberInstance(t *testing.T) {
	testServer := &server{
		fiber: fiber.New(),
	}
	fiberInstance := testServer.GetFiberInstance()

	assert.IsType(t, fiberInstance, testServer.fiber)
}

func TestServer_RegisterRoutes(t *testing.T) {
	testServer := NewServer(&config.Config{ServerPort: "8080"}, []Handler{pingHandler{}})
	testServer.RegisterRoutes()
	app := testServer.GetFiberInstance()

	t.Run("happy path", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("when route is unknown should return not found envelope", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/unknown", nil))
		require.NoError(t, err)

		var envelope response.Envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, cerror.MessageRouteNotFound, envelope.Message)
		assert.False(t, envelope.Success)
	})

	t.Run("when body exceeds limit should return 413", func(t *testing.T) {
		body := bytes.Repeat([]byte("a"), BodyLimit+1)
		req := httptest.NewRequest(fiber.MethodPost, "/echo", bytes.NewReader(body))

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	})
}

func TestServer_LambdaProxyHandler(t *testing.T) {
	testServer := NewServer(&config.Config{}, []Handler{pingHandler{}})
	testServer.RegisterRoutes()

	resp, err := testServer.LambdaProxyHandler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: fiber.MethodGet,
		Path:       "/ping",
	})

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, "pong")
}

func TestServer_ClientIp(t *testing.T) {
	clientIp := func(t *testing.T, cfg *config.Config) string {
		testServer := NewServer(cfg, []Handler{pingHandler{}})
		testServer.RegisterRoutes()

		req := httptest.NewRequest(fiber.MethodGet, "/ip", nil)
		req.Header.Set(fiber.HeaderXForwardedFor, "203.0.113.7, 10.0.0.1")

		resp, err := testServer.GetFiberInstance().Test(req)
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	t.Run("when running remotely should use first forwarded address", func(t *testing.T) {
		assert.Equal(t, "203.0.113.7", clientIp(t, &config.Config{IsAtRemote: true}))
	})

	t.Run("when running locally should ignore forwarded header", func(t *testing.T) {
		assert.NotContains(t, clientIp(t, &config.Config{}), "203.0.113.7")
	})
}
