// Package config loads runtime configuration from built-in defaults, an
// optional YAML file and environment variables, in increasing precedence.
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

// ConfigPathEnvVar names the variable pointing at an optional YAML file.
const ConfigPathEnvVar = "CONFIG_PATH"

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	AllowedOrigins    []string      `koanf:"allowed_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// CollectionsConfig names the MongoDB collections.
type CollectionsConfig struct {
	Cafes     string `koanf:"cafes"`
	Ratings   string `koanf:"ratings"`
	Favorites string `koanf:"favorites"`
	Users     string `koanf:"users"`
}

// MongoConfig configures the database connection.
type MongoConfig struct {
	URI            string            `koanf:"uri"`
	Database       string            `koanf:"database"`
	ConnectTimeout time.Duration     `koanf:"connect_timeout"`
	Collections    CollectionsConfig `koanf:"collections"`
}

// AuthConfig configures token signing and verification.
type AuthConfig struct {
	JWTSecret   string        `koanf:"jwt_secret"`
	JWTIssuer   string        `koanf:"jwt_issuer"`
	JWTAudience string        `koanf:"jwt_audience"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
}

// OverpassConfig configures the external geodata source.
type OverpassConfig struct {
	Endpoint          string        `koanf:"endpoint"`
	Timeout           time.Duration `koanf:"timeout"`
	UserAgent         string        `koanf:"user_agent"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerCooldown   time.Duration `koanf:"breaker_cooldown"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Mongo    MongoConfig    `koanf:"mongo"`
	Auth     AuthConfig     `koanf:"auth"`
	Overpass OverpassConfig `koanf:"overpass"`
	Logging  LoggingConfig  `koanf:"logging"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			AllowedOrigins:    []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://mongo:27017",
			Database:       "bean-beacon",
			ConnectTimeout: 10 * time.Second,
			Collections: CollectionsConfig{
				Cafes:     "cafes",
				Ratings:   "ratings",
				Favorites: "favorites",
				Users:     "users",
			},
		},
		Auth: AuthConfig{
			JWTIssuer: "bean-beacon-api",
			TokenTTL:  7 * 24 * time.Hour,
		},
		Overpass: OverpassConfig{
			Endpoint:          "https://overpass-api.de/api/interpreter",
			Timeout:           30 * time.Second,
			UserAgent:         "bean-beacon-api/1.0",
			RequestsPerSecond: 1,
			Burst:             2,
			BreakerFailures:   5,
			BreakerCooldown:   time.Minute,
			CacheTTL:          time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envMappings maps environment variable names (lower-cased) to config paths.
var envMappings = map[string]string{
	"http_addr":                 "server.addr",
	"api_allowed_origins":       "server.allowed_origins",
	"rate_limit_requests":       "server.rate_limit_requests",
	"rate_limit_window":         "server.rate_limit_window",
	"mongo_uri":                 "mongo.uri",
	"mongo_db":                  "mongo.database",
	"mongo_connect_timeout":     "mongo.connect_timeout",
	"cafe_collection":           "mongo.collections.cafes",
	"rating_collection":         "mongo.collections.ratings",
	"favorite_collection":       "mongo.collections.favorites",
	"user_collection":           "mongo.collections.users",
	"auth_jwt_secret":           "auth.jwt_secret",
	"auth_jwt_issuer":           "auth.jwt_issuer",
	"auth_jwt_audience":         "auth.jwt_audience",
	"auth_token_ttl":            "auth.token_ttl",
	"overpass_url":              "overpass.endpoint",
	"overpass_timeout":          "overpass.timeout",
	"overpass_user_agent":       "overpass.user_agent",
	"overpass_rps":              "overpass.requests_per_second",
	"overpass_burst":            "overpass.burst",
	"overpass_breaker_failures": "overpass.breaker_failures",
	"overpass_breaker_cooldown": "overpass.breaker_cooldown",
	"geodata_cache_ttl":         "overpass.cache_ttl",
	"log_level":                 "logging.level",
	"log_format":                "logging.format",
}

// envTransformFunc maps a known variable to its config path. Unknown
// variables map to "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load reads defaults, the optional CONFIG_PATH file and the environment,
// then validates the result.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Server.AllowedOrigins = parseList(cfg.Server.AllowedOrigins, []string{"*"})

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate reports missing or out-of-range settings.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be configured"))
	}
	if strings.TrimSpace(c.Mongo.URI) == "" {
		errs = append(errs, errors.New("MONGO_URI must be configured"))
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		errs = append(errs, errors.New("MONGO_DB must be configured"))
	}
	if c.Overpass.Timeout <= 0 || c.Overpass.Timeout > 30*time.Second {
		errs = append(errs, errors.New("OVERPASS_TIMEOUT must be between 0 and 30s"))
	}
	if c.Overpass.CacheTTL <= 0 {
		errs = append(errs, errors.New("GEODATA_CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// parseList trims entries and drops empty ones, falling back when nothing
// remains.
func parseList(values []string, fallback []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
