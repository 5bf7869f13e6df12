package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an optional YAML file layered between the
// defaults and the environment.
const ConfigPathEnvVar = "CONFIG_PATH"

type HTTPConfig struct {
	Addr string `koanf:"addr"`
	// CORSOrigins is a comma-separated allow list; empty means "*".
	CORSOrigins string `koanf:"cors_origins"`
	// AuthRateLimit is the number of auth requests allowed per IP per minute.
	AuthRateLimit int `koanf:"auth_rate_limit"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
}

type JWTConfig struct {
	Secret   string        `koanf:"secret"`
	Issuer   string        `koanf:"issuer"`
	Audience string        `koanf:"audience"`
	TTL      time.Duration `koanf:"ttl"`
}

type OMDbConfig struct {
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type NATSConfig struct {
	URL string `koanf:"url"`
}

type AppConfig struct {
	ServiceName string         `koanf:"service_name"`
	Env         string         `koanf:"env"`
	LogLevel    string         `koanf:"log_level"`
	HTTP        HTTPConfig     `koanf:"http"`
	Database    DatabaseConfig `koanf:"database"`
	JWT         JWTConfig      `koanf:"jwt"`
	OMDb        OMDbConfig     `koanf:"omdb"`
	Redis       RedisConfig    `koanf:"redis"`
	NATS        NATSConfig     `koanf:"nats"`
}

// IsProduction reports whether APP_ENV is "production".
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

func defaults() *AppConfig {
	return &AppConfig{
		ServiceName: "movie-library",
		Env:         "development",
		LogLevel:    "info",
		HTTP: HTTPConfig{
			Addr:          ":8080",
			AuthRateLimit: 20,
		},
		Database: DatabaseConfig{MaxConns: 10},
		JWT: JWTConfig{
			Issuer:   "movie-library",
			Audience: "movie-library-web",
			TTL:      60 * time.Minute,
		},
		OMDb: OMDbConfig{
			BaseURL:    "https://www.omdbapi.com",
			Timeout:    5 * time.Second,
			MaxRetries: 2,
			CacheTTL:   6 * time.Hour,
		},
	}
}

// envKeys maps environment variables onto config paths. Variables not
// listed here are ignored.
var envKeys = map[string]string{
	"SERVICE_NAME":         "service_name",
	"APP_ENV":              "env",
	"LOG_LEVEL":            "log_level",
	"HTTP_ADDR":            "http.addr",
	"CORS_ALLOWED_ORIGINS": "http.cors_origins",
	"AUTH_RATE_LIMIT":      "http.auth_rate_limit",
	"DATABASE_URL":         "database.url",
	"DB_MAX_CONNS":         "database.max_conns",
	"JWT_SECRET":           "jwt.secret",
	"JWT_ISSUER":           "jwt.issuer",
	"JWT_AUDIENCE":         "jwt.audience",
	"JWT_TTL":              "jwt.ttl",
	"OMDB_API_KEY":         "omdb.api_key",
	"OMDB_BASE_URL":        "omdb.base_url",
	"OMDB_TIMEOUT":         "omdb.timeout",
	"OMDB_MAX_RETRIES":     "omdb.max_retries",
	"OMDB_CACHE_TTL":       "omdb.cache_ttl",
	"REDIS_URL":            "redis.url",
	"NATS_URL":             "nats.url",
}

func envKey(name string) string {
	return envKeys[name]
}

// Load builds the AppConfig from defaults, an optional YAML file and the
// environment, in that order of precedence.
func Load() (AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return AppConfig{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return AppConfig{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return AppConfig{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return errors.New("SERVICE_NAME is required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("DATABASE_URL is required in production")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}
