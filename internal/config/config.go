// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ericfisherdev/graphdesk/internal/logging"
	"github.com/ericfisherdev/graphdesk/internal/secretbox"
)

// Prefix is prepended to every variable name. Each variable may also be set
// without the prefix (e.g. ENCRYPTION_KEY as written by cmd/keygen); the
// prefixed name wins when both are present.
const Prefix = "GRAPHDESK"

// EnvFileVar names the dotenv file loaded before the environment is read.
const EnvFileVar = Prefix + "_ENV_FILE"

// Supported values for DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath      string `envconfig:"DB_PATH" default:"graphdesk.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// EncryptionKey is the hex-encoded AES-256 key. Empty disables API key
	// storage; the server still starts.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`

	RegistryURL        string        `envconfig:"REGISTRY_URL" default:"https://api.apollographql.com/api/graphql"`
	RegistryClientName string        `envconfig:"REGISTRY_CLIENT_NAME" default:"graphdesk"`
	RegistryTimeout    time.Duration `envconfig:"REGISTRY_TIMEOUT" default:"30s"`

	SessionJWKSURL           string   `envconfig:"SESSION_JWKS_URL"`
	SessionPublicKey         string   `envconfig:"SESSION_PUBLIC_KEY"`
	SessionIssuer            string   `envconfig:"SESSION_ISSUER"`
	SessionAuthorizedParties []string `envconfig:"SESSION_AUTHORIZED_PARTIES"`
	SessionCookie            string   `envconfig:"SESSION_COOKIE" default:"__session"`

	CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimit   int           `envconfig:"RATE_LIMIT" default:"0"`
	RateWindow  time.Duration `envconfig:"RATE_WINDOW" default:"1m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Key is EncryptionKey decoded; nil when no key is configured.
	Key []byte `ignored:"true"`
}

// HasEncryptionKey reports whether API key storage is available.
func (c *Config) HasEncryptionKey() bool {
	return c.Key != nil
}

// Load reads the dotenv file named by GRAPHDESK_ENV_FILE (default ".env"),
// then the environment, and returns a validated Config. Variables already set
// in the environment take precedence over the file; a missing file is not an
// error.
func Load() (*Config, error) {
	envFile := ".env"
	if v, ok := os.LookupEnv(EnvFileVar); ok {
		envFile = v
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.EncryptionKey != "" {
		key, err := secretbox.ParseKey(c.EncryptionKey)
		if err != nil {
			return fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
		c.Key = key
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%s_DB_PATH must not be empty", Prefix)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%s_DATABASE_URL is required when %s_DB_DRIVER is %q", Prefix, Prefix, DriverPostgres)
		}
	default:
		return fmt.Errorf("%s_DB_DRIVER has unsupported value %q (want %q or %q)", Prefix, c.DBDriver, DriverSQLite, DriverPostgres)
	}

	if _, err := url.ParseRequestURI(c.RegistryURL); err != nil {
		return fmt.Errorf("%s_REGISTRY_URL is invalid: %w", Prefix, err)
	}
	if c.RegistryTimeout <= 0 {
		return fmt.Errorf("%s_REGISTRY_TIMEOUT must be positive, got %s", Prefix, c.RegistryTimeout)
	}

	// PEM keys are often passed on one line with literal \n separators.
	c.SessionPublicKey = strings.ReplaceAll(c.SessionPublicKey, `\n`, "\n")
	if c.SessionJWKSURL == "" && c.SessionPublicKey == "" {
		return fmt.Errorf("one of %s_SESSION_JWKS_URL or %s_SESSION_PUBLIC_KEY is required", Prefix, Prefix)
	}
	if c.SessionJWKSURL != "" {
		if _, err := url.ParseRequestURI(c.SessionJWKSURL); err != nil {
			return fmt.Errorf("%s_SESSION_JWKS_URL is invalid: %w", Prefix, err)
		}
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("%s_SESSION_COOKIE must not be empty", Prefix)
	}

	c.SessionAuthorizedParties = trimList(c.SessionAuthorizedParties)
	c.CORSOrigins = trimList(c.CORSOrigins)

	if c.RateLimit < 0 {
		return fmt.Errorf("%s_RATE_LIMIT must not be negative, got %d", Prefix, c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		return fmt.Errorf("%s_RATE_WINDOW must be positive when %s_RATE_LIMIT is set", Prefix, Prefix)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s_LOG_LEVEL: %w", Prefix, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%s_LOG_FORMAT has unsupported value %q (want text or json)", Prefix, c.LogFormat)
	}

	return nil
}

// trimList drops blank entries and surrounding whitespace from a comma list.
func trimList(in []string) []string {
	out := []string{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
