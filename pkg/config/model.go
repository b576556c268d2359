package config

import "time"

// #nosec
const (
	EnvironmentVariableNotDefined = "%s variable is not defined"
	EnvironmentVariableMalformed  = "%s variable is malformed: %w"

	ServerPort  = "SERVER_PORT"
	Environment = "ENVIRONMENT"
	IsAtRemote  = "IS_AT_REMOTE"
	CorsOrigin  = "CORS_ORIGIN"

	MongodbUri            = "MONGODB_URI"
	MongodbUsername       = "MONGODB_USERNAME"
	MongodbPassword       = "MONGODB_PASSWORD"
	MongodbDatabase       = "MONGODB_DATABASE"
	MongodbUserCollection = "MONGODB_USER_COLLECTION"

	AccessTokenSecret  = "ACCESS_TOKEN_SECRET"
	AccessTokenExpiry  = "ACCESS_TOKEN_EXPIRY"
	RefreshTokenSecret = "REFRESH_TOKEN_SECRET"
	RefreshTokenExpiry = "REFRESH_TOKEN_EXPIRY"
	CookieMaxAge       = "COOKIE_MAX_AGE"

	RedisAddr               = "REDIS_ADDR"
	RedisPassword           = "REDIS_PASSWORD"
	RedisDb                 = "REDIS_DB"
	RateLimitCapacity       = "RATE_LIMIT_CAPACITY"
	RateLimitRefillInterval = "RATE_LIMIT_REFILL_INTERVAL"
	RateLimitTtl            = "RATE_LIMIT_TTL"

	RabbitMqUrl      = "RABBITMQ_URL"
	RabbitMqExchange = "RABBITMQ_EXCHANGE"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"

	DefaultServerPort       = "8080"
	DefaultCorsOrigin       = "*"
	DefaultRabbitMqExchange = "account.events"

	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
	DefaultCookieMaxAge       = 7 * 24 * time.Hour

	DefaultRateLimitCapacity       = 20
	DefaultRateLimitRefillInterval = 3 * time.Second
	DefaultRateLimitTtl            = 10 * time.Minute

	masked = "******"
)

type Config struct {
	ServerPort  string
	Environment string
	CorsOrigin  string
	// IsAtRemote is set when running behind API Gateway, where the client
	// address arrives in X-Forwarded-For.
	IsAtRemote bool
	Mongodb    MongodbConfig
	Jwt        JwtConfig
	Cookie     CookieConfig
	Redis      RedisConfig
	RabbitMq   RabbitMqConfig
}

type MongodbConfig struct {
	Uri         string
	Username    string
	Password    string
	Database    string
	Collections map[string]string
}

type JwtConfig struct {
	AccessTokenSecret  []byte
	AccessTokenTtl     time.Duration
	RefreshTokenSecret []byte
	RefreshTokenTtl    time.Duration
}

type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

type RedisConfig struct {
	Addr      string
	Password  string
	Db        int
	RateLimit RateLimitConfig
}

type RateLimitConfig struct {
	Capacity       int
	RefillInterval time.Duration
	Ttl            time.Duration
}

type RabbitMqConfig struct {
	Url      string
	Exchange string
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func (r RabbitMqConfig) Enabled() bool {
	return r.Url != ""
}
