package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	fiberadapter "github.com/awslabs/aws-lambda-go-api-proxy/fiber"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"account-api/pkg/cerror"
	"account-api/pkg/config"
)

const BodyLimit = 16 * 1024

type Handler interface {
	RegisterRoutes(app *fiber.App)
}

type Server interface {
	GetFiberInstance() *fiber.App
	Start() error
	Shutdown() error
	RegisterRoutes()
	LambdaProxyHandler(
		ctx context.Context,
		req events.APIGatewayProxyRequest,
	) (events.APIGatewayProxyResponse, error)
}

type server struct {
	serverPort         string
	handlers           []Handler
	fiber              *fiber.App
	fiberLambdaAdapter *fiberadapter.FiberLambda
}

func NewServer(config *config.Config, handlers []Handler) Server {
	fiberConfig := fiber.Config{
		AppName:               "account-api",
		BodyLimit:             BodyLimit,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          cerror.Middleware,
	}
	// Behind API Gateway every request comes from the same peer, so ctx.IP()
	// has to read the client from the forwarded chain.
	if config.IsAtRemote {
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedFor
		fiberConfig.EnableIPValidation = true
	}

	app := fiber.New(fiberConfig)
	fiberLambdaAdapter := fiberadapter.New(app)
	return &server{
		fiber:              app,
		handlers:           handlers,
		serverPort:         config.ServerPort,
		fiberLambdaAdapter: fiberLambdaAdapter,
	}
}

func (server *server) Start() error {
	shutdownChannel := make(chan os.Signal, 1)
	signal.Notify(shutdownChannel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-shutdownChannel
		_ = server.fiber.Shutdown()
	}()

	serverAddress := fmt.Sprintf(":%s", server.serverPort)
	return server.fiber.Listen(serverAddress)
}

func (server *server) Shutdown() error {
	return server.fiber.Shutdown()
}

func (server *server) GetFiberInstance() *fiber.App {
	return server.fiber
}

// RegisterRoutes mounts every handler and then the catch-all that turns unknown
// routes into a 404 envelope. Call it after all global middleware is in place.
func (server *server) RegisterRoutes() {
	for _, handler := range server.handlers {
		handler.RegisterRoutes(server.fiber)
	}

	server.fiber.Use(func(ctx *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

func (server *server) LambdaProxyHandler(
	ctx context.Context,
	req events.APIGatewayProxyRequest,
) (events.APIGatewayProxyResponse, error) {
	return server.fiberLambdaAdapter.ProxyWithContext(ctx, req)
}
