package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Identity IdentityConfig
	Backend  BackendConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Jobs     JobsConfig
}

type IdentityConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
}

// BackendConfig points at the Implantei backend API the gateway proxies to.
type BackendConfig struct {
	BaseURL      string        `env:"BACKEND_BASE_URL, default=http://localhost:3000/api"`
	ServiceToken string        `env:"BACKEND_SERVICE_TOKEN"`
	Timeout      time.Duration `env:"BACKEND_TIMEOUT, default=10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=implantei_core"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type CacheConfig struct {
	TenantTTL     time.Duration `env:"CACHE_TENANT_TTL,      default=1h"`
	TenantListTTL time.Duration `env:"CACHE_TENANT_LIST_TTL, default=30m"`
}

type JobsConfig struct {
	TenantRefreshInterval time.Duration `env:"TENANT_REFRESH_INTERVAL, default=15m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
