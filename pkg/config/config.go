package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kr/pretty"
)

func ReadConfig() (*Config, error) {
	serverPort := os.Getenv(ServerPort)
	if serverPort == "" {
		serverPort = DefaultServerPort
		fmt.Println("server port environment variable is empty its declared 8080 by default")
	}

	environment := os.Getenv(Environment)
	if environment == "" {
		environment = EnvironmentDevelopment
	}

	corsOrigin := os.Getenv(CorsOrigin)
	if corsOrigin == "" {
		corsOrigin = DefaultCorsOrigin
	}

	mongodbConfig, err := ReadMongoDbConfig()
	if err != nil {
		return nil, err
	}

	jwtConfig, err := ReadJwtConfig()
	if err != nil {
		return nil, err
	}

	cookieMaxAge, err := readDuration(CookieMaxAge, DefaultCookieMaxAge)
	if err != nil {
		return nil, err
	}

	redisConfig, err := ReadRedisConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:  serverPort,
		Environment: environment,
		CorsOrigin:  corsOrigin,
		IsAtRemote:  os.Getenv(IsAtRemote) != "",
		Mongodb:     mongodbConfig,
		Jwt:         jwtConfig,
		Cookie: CookieConfig{
			MaxAge: cookieMaxAge,
			Secure: environment == EnvironmentProduction,
		},
		Redis:    redisConfig,
		RabbitMq: ReadRabbitMqConfig(),
	}, nil
}

// Print writes the config to stdout with every credential masked.
func (c *Config) Print() {
	printable := *c
	printable.Mongodb.Password = maskIfSet(printable.Mongodb.Password)
	printable.Redis.Password = maskIfSet(printable.Redis.Password)
	printable.RabbitMq.Url = maskIfSet(printable.RabbitMq.Url)
	printable.Jwt.AccessTokenSecret = []byte(masked)
	printable.Jwt.RefreshTokenSecret = []byte(masked)
	_, _ = pretty.Println(printable)
}

func ReadMongoDbConfig() (MongodbConfig, error) {
	mongodbUri := os.Getenv(MongodbUri)
	if mongodbUri == "" {
		return MongodbConfig{}, fmt.Errorf(EnvironmentVariableNotDefined, MongodbUri)
	}

	mongodbDatabase := os.Getenv(MongodbDatabase)
	if mongodbDatabase == "" {
		return MongodbConfig{}, fmt.Errorf(EnvironmentVariableNotDefined, MongodbDatabase)
	}

	mongodbUserCollection := os.Getenv(MongodbUserCollection)
	if mongodbUserCollection == "" {
		return MongodbConfig{}, fmt.Errorf(EnvironmentVariableNotDefined, MongodbUserCollection)
	}

	return MongodbConfig{
		Uri:      mongodbUri,
		Username: os.Getenv(MongodbUsername),
		Password: os.Getenv(MongodbPassword),
		Database: mongodbDatabase,
		Collections: map[string]string{
			MongodbUserCollection: mongodbUserCollection,
		},
	}, nil
}

func ReadJwtConfig() (JwtConfig, error) {
	accessTokenSecret := os.Getenv(AccessTokenSecret)
	if accessTokenSecret == "" {
		return JwtConfig{}, fmt.Errorf(EnvironmentVariableNotDefined, AccessTokenSecret)
	}

	refreshTokenSecret := os.Getenv(RefreshTokenSecret)
	if refreshTokenSecret == "" {
		return JwtConfig{}, fmt.Errorf(EnvironmentVariableNotDefined, RefreshTokenSecret)
	}

	if bytes.Equal([]byte(accessTokenSecret), []byte(refreshTokenSecret)) {
		return JwtConfig{}, fmt.Errorf("%s and %s must not be equal", AccessTokenSecret, RefreshTokenSecret)
	}

	accessTokenTtl, err := readDuration(AccessTokenExpiry, DefaultAccessTokenExpiry)
	if err != nil {
		return JwtConfig{}, err
	}

	refreshTokenTtl, err := readDuration(RefreshTokenExpiry, DefaultRefreshTokenExpiry)
	if err != nil {
		return JwtConfig{}, err
	}

	return JwtConfig{
		AccessTokenSecret:  []byte(accessTokenSecret),
		AccessTokenTtl:     accessTokenTtl,
		RefreshTokenSecret: []byte(refreshTokenSecret),
		RefreshTokenTtl:    refreshTokenTtl,
	}, nil
}

func ReadRedisConfig() (RedisConfig, error) {
	redisDb := 0
	if rawRedisDb := os.Getenv(RedisDb); rawRedisDb != "" {
		parsed, err := strconv.Atoi(rawRedisDb)
		if err != nil {
			return RedisConfig{}, fmt.Errorf(EnvironmentVariableMalformed, RedisDb, err)
		}
		redisDb = parsed
	}

	capacity := DefaultRateLimitCapacity
	if rawCapacity := os.Getenv(RateLimitCapacity); rawCapacity != "" {
		parsed, err := strconv.Atoi(rawCapacity)
		if err != nil {
			return RedisConfig{}, fmt.Errorf(EnvironmentVariableMalformed, RateLimitCapacity, err)
		}
		if parsed < 1 {
			return RedisConfig{}, fmt.Errorf("%s variable must be positive", RateLimitCapacity)
		}
		capacity = parsed
	}

	refillInterval, err := readDuration(RateLimitRefillInterval, DefaultRateLimitRefillInterval)
	if err != nil {
		return RedisConfig{}, err
	}

	ttl, err := readDuration(RateLimitTtl, DefaultRateLimitTtl)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:     os.Getenv(RedisAddr),
		Password: os.Getenv(RedisPassword),
		Db:       redisDb,
		RateLimit: RateLimitConfig{
			Capacity:       capacity,
			RefillInterval: refillInterval,
			Ttl:            ttl,
		},
	}, nil
}

func ReadRabbitMqConfig() RabbitMqConfig {
	exchange := os.Getenv(RabbitMqExchange)
	if exchange == "" {
		exchange = DefaultRabbitMqExchange
	}

	return RabbitMqConfig{
		Url:      os.Getenv(RabbitMqUrl),
		Exchange: exchange,
	}
}

func readDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	rawDuration := os.Getenv(key)
	if rawDuration == "" {
		return defaultValue, nil
	}

	duration, err := time.ParseDuration(rawDuration)
	if err != nil {
		return 0, fmt.Errorf(EnvironmentVariableMalformed, key, err)
	}

	if duration <= 0 {
		return 0, fmt.Errorf("%s variable must be positive", key)
	}

	return duration, nil
}

func maskIfSet(value string) string {
	if value == "" {
		return ""
	}
	return masked
}
