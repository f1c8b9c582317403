// Package config provides configuration loading for the travel journal server.
//
// Configuration is layered, later layers winning:
//
//  1. DefaultConfig
//  2. an optional YAML file (--config)
//  3. environment variables (PORT, DB_PATH, JWT_SECRET, ...)
//
// and is validated once at the end. Validation reports every problem at
// once rather than stopping at the first.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environments the server knows about.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// MinJWTSecretLength is the shortest accepted signing secret.
const MinJWTSecretLength = 16

// Config represents the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	// CORSOrigins are the browser origins allowed to call the API.
	CORSOrigins []string `yaml:"cors_origins"`
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures SQLite.
type DatabaseConfig struct {
	// Path is the database file, or ":memory:".
	Path string `yaml:"path"`
}

// AuthConfig configures tokens and the optional GitHub sign-in.
type AuthConfig struct {
	JWTSecret string       `yaml:"jwt_secret"`
	GitHub    GitHubConfig `yaml:"github"`
}

// GitHubConfig enables GitHub sign-in when ClientID is set.
type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

// Enabled reports whether GitHub sign-in is configured.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != ""
}

// StorageConfig configures photo uploads.
type StorageConfig struct {
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// LogConfig configures slog.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is "text" or "json"; empty picks json in production and text
	// elsewhere.
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults for local development.
// It has no JWT secret, so it does not validate until one is supplied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Environment:     EnvDevelopment,
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
			MaxBodyBytes:    1 << 20, // 1 MiB
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/travel-journal.db",
		},
		Storage: StorageConfig{
			UploadDir:      "uploads",
			MaxUploadBytes: 10 << 20, // 10 MiB
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load resolves the configuration and validates it.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg, err := Resolve(path, getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve builds the configuration without validating it: defaults, then
// the YAML file at path (if path is not empty), then environment variables
// read through getenv. Commands that only touch the database use it
// directly, since they have no use for a JWT secret.
func Resolve(path string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
// Unknown keys are an error so a typo doesn't silently fall back to a default.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Unset (empty)
// variables leave the current value alone. Malformed numbers are collected
// and returned together.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error

	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int64) {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer, got %q", name, v))
			return
		}
		*dst = n
	}

	port := int64(c.Server.Port)
	integer("PORT", &port)
	c.Server.Port = int(port)

	str("APP_ENV", &c.Server.Environment)
	if v := getenv("CORS_ORIGINS"); strings.TrimSpace(v) != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	str("DB_PATH", &c.Database.Path)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("GITHUB_CLIENT_ID", &c.Auth.GitHub.ClientID)
	str("GITHUB_CLIENT_SECRET", &c.Auth.GitHub.ClientSecret)
	str("GITHUB_CALLBACK_URL", &c.Auth.GitHub.CallbackURL)
	str("UPLOAD_DIR", &c.Storage.UploadDir)
	integer("MAX_UPLOAD_BYTES", &c.Storage.MaxUploadBytes)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable and reports every
// problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("server.environment must be one of %s, %s, %s; got %q",
			EnvDevelopment, EnvProduction, EnvTest, c.Server.Environment))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path (DB_PATH) is required"))
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret (JWT_SECRET) must be at least %d characters", MinJWTSecretLength))
	}
	if c.Auth.GitHub.Enabled() {
		if c.Auth.GitHub.ClientSecret == "" {
			errs = append(errs, errors.New("auth.github.client_secret (GITHUB_CLIENT_SECRET) is required when GitHub sign-in is enabled"))
		}
		if c.Auth.GitHub.CallbackURL == "" {
			errs = append(errs, errors.New("auth.github.callback_url (GITHUB_CALLBACK_URL) is required when GitHub sign-in is enabled"))
		}
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, errors.New("storage.upload_dir (UPLOAD_DIR) is required"))
	}
	if c.Storage.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("storage.max_upload_bytes (MAX_UPLOAD_BYTES) must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether the server runs in production. Error
// responses carry diagnostic details everywhere else.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", l.Level)
	}
	return level, nil
}

// JSONLogs reports whether logs should be written as JSON.
func (c *Config) JSONLogs() bool {
	if c.Log.Format == "" {
		return c.IsProduction()
	}
	return c.Log.Format == "json"
}
