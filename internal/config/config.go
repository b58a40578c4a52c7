// Package config 负责加载应用配置：先读取 .env（可选），再由环境变量填充强类型配置。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 应用全部配置
type Config struct {
	App        AppConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Migrations MigrationsConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Storage    StorageConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
	MQ         MQConfig
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name            string        `envconfig:"APP_NAME" default:"print-shop"`
	Env             string        `envconfig:"APP_ENV" default:"dev"` // dev, test, prod
	Version         string        `envconfig:"APP_VERSION" default:"v0.1.0"`
	Port            int           `envconfig:"APP_PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `envconfig:"LOG_LEVEL" default:"info"`
	Encoding string `envconfig:"LOG_ENCODING" default:"json"` // json 或 console
}

// DatabaseConfig MySQL 连接配置
type DatabaseConfig struct {
	Host         string `envconfig:"DB_HOST" default:"127.0.0.1"`
	Port         int    `envconfig:"DB_PORT" default:"3306"`
	User         string `envconfig:"DB_USER" default:"root"`
	Password     string `envconfig:"DB_PASSWORD"`
	DBName       string `envconfig:"DB_NAME" default:"print_shop"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"127.0.0.1"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enabled bool          `envconfig:"CACHE_ENABLED" default:"true"`
	Type    string        `envconfig:"CACHE_TYPE" default:"redis"` // redis 或 memory
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// MigrationsConfig 数据库迁移配置
type MigrationsConfig struct {
	Dir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
}

// JWTConfig 运营后台令牌校验配置（令牌由外部认证服务签发）
type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET"`
	Issuer string `envconfig:"JWT_ISSUER"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	AllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Content-Type,Authorization,X-Request-ID,X-Idempotency-Key"`
}

// StorageConfig 设计图片对象存储配置
type StorageConfig struct {
	Bucket          string `envconfig:"STORAGE_BUCKET"`
	PublicBaseURL   string `envconfig:"STORAGE_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	CredentialsFile string `envconfig:"STORAGE_CREDENTIALS_FILE"`
}

// SessionConfig 定制会话配置
type SessionConfig struct {
	TTL            time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

// RateLimitConfig 公开接口按客户端限流配置
type RateLimitConfig struct {
	Enabled bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Rate    int64         `envconfig:"RATE_LIMIT_RATE" default:"20"`
	Window  time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1s"`
	Burst   int64         `envconfig:"RATE_LIMIT_BURST" default:"40"`
}

// MQConfig 领域事件发布配置；未启用时事件被丢弃
type MQConfig struct {
	Enabled          bool          `envconfig:"MQ_ENABLED" default:"false"`
	Host             string        `envconfig:"MQ_HOST" default:"127.0.0.1"`
	Port             int           `envconfig:"MQ_PORT" default:"5672"`
	Username         string        `envconfig:"MQ_USERNAME" default:"guest"`
	Password         string        `envconfig:"MQ_PASSWORD" default:"guest"`
	VHost            string        `envconfig:"MQ_VHOST"`
	Exchange         string        `envconfig:"MQ_EXCHANGE" default:"print_shop.events"`
	PublishTimeout   time.Duration `envconfig:"MQ_PUBLISH_TIMEOUT" default:"5s"`
	MaxRetryAttempts int           `envconfig:"MQ_MAX_RETRY_ATTEMPTS" default:"2"`
}

// Load 加载并校验配置。
// .env 文件不存在时不视为错误，仍然以系统环境变量为准。
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置之间的约束
func (c *Config) Validate() error {
	switch c.App.Env {
	case "dev", "test", "prod":
	default:
		return fmt.Errorf("invalid APP_ENV %q", c.App.Env)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.App.Port)
	}
	switch strings.ToLower(c.Log.Encoding) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid LOG_ENCODING %q", c.Log.Encoding)
	}
	if c.App.Env == "prod" && c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required in prod")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("RATE_LIMIT_RATE and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// IsProd 是否为生产环境
func (c *Config) IsProd() bool {
	return c.App.Env == "prod"
}
