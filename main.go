package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"account-api/internal/user"
	"account-api/pkg/config"
	"account-api/pkg/event"
	"account-api/pkg/hasher"
	"account-api/pkg/jwt_generator"
	"account-api/pkg/logger"
	"account-api/pkg/path"
	"account-api/pkg/ratelimit"
	"account-api/pkg/response"
	"account-api/pkg/server"
)

const startupTimeout = 10 * time.Second

func main() {
	if os.Getenv(config.IsAtRemote) == "" {
		err := godotenv.Load(path.EnvironmentFile())
		if err != nil && !os.IsNotExist(err) {
			panic(err)
		}
	}

	cfg, err := config.ReadConfig()
	if err != nil {
		panic(err)
	}
	cfg.Print()

	log, err := logger.NewLogger(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func(log *zap.SugaredLogger) {
		_ = log.Sync()
	}(log)

	jwtGenerator, err := jwt_generator.NewJwtGenerator(cfg.Jwt)
	if err != nil {
		log.Fatalw(
			"failed to create jwt generator",
			zap.Error(err),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	mongoDbClient, err := setupMongodbClient(ctx, cfg)
	if err != nil {
		log.Fatalw(
			"failed to setup mongodb client",
			zap.Error(err),
		)
	}
	defer func(client *mongo.Client) {
		err := client.Disconnect(context.Background())
		if err != nil {
			log.Errorw(
				"failed to disconnect mongodb client",
				zap.Error(err),
			)
		}
	}(mongoDbClient)

	userRepository := user.NewRepository(mongoDbClient, cfg.Mongodb)
	err = userRepository.EnsureIndexes(ctx)
	if err != nil {
		log.Fatalw(
			"failed to create user indexes",
			zap.Error(err),
		)
	}

	redisClient := setupRedisClient(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	publisher, err := event.NewPublisher(cfg.RabbitMq)
	if err != nil {
		log.Warnw(
			"account events are disabled, rabbitmq is unreachable",
			zap.Error(err),
		)
		publisher = event.NewNoopPublisher()
	}
	defer publisher.Close() //nolint:errcheck

	userService := user.NewService(
		userRepository,
		jwtGenerator,
		hasher.NewHasher(hasher.DefaultCost),
		publisher,
		cfg.Jwt,
	)
	userHandler := user.NewHandler(
		userService,
		jwtGenerator,
		ratelimit.NewLimiter(redisClient, cfg.Redis.RateLimit),
		cfg.Cookie,
	)

	handlers := []server.Handler{userHandler}
	srv := server.NewServer(cfg, handlers)

	app := srv.GetFiberInstance()
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CorsOrigin,
		AllowCredentials: cfg.CorsOrigin != config.DefaultCorsOrigin,
	}))
	app.Use(logger.Middleware(log))
	app.Get("/api/health", func(ctx *fiber.Ctx) error {
		return response.Send(ctx, fiber.StatusOK, fiber.Map{"status": "ok"}, "OK")
	})

	srv.RegisterRoutes()

	if !cfg.IsAtRemote {
		log.Infow("server is starting", zap.String("port", cfg.ServerPort))
		err = srv.Start()
		if err != nil {
			log.Errorw("server stopped", zap.Error(err))
		}
	} else {
		lambda.Start(srv.LambdaProxyHandler)
	}
}

func setupMongodbClient(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.Mongodb.Uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	if cfg.Mongodb.Username != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Mongodb.Username,
			Password: cfg.Mongodb.Password,
		})
	}

	mongodbClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	err = mongodbClient.Ping(ctx, nil)
	if err != nil {
		_ = mongodbClient.Disconnect(ctx)
		return nil, err
	}

	return mongodbClient, nil
}

// setupRedisClient returns nil when redis is not configured or not reachable,
// which turns rate limiting off.
func setupRedisClient(ctx context.Context, redisConfig config.RedisConfig, log *zap.SugaredLogger) *redis.Client {
	if !redisConfig.Enabled() {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
		DB:       redisConfig.Db,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		log.Warnw(
			"rate limiting is disabled, redis is unreachable",
			zap.String("addr", redisConfig.Addr),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}

	return client
}
