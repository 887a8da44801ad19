// Package config loads configuration from command-line flags, environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json or pretty; empty picks by environment
}

// StorageConfig locates the record store and the blob store.
type StorageConfig struct {
	DataDir string
	// ImagesEnabled reports whether the blob store capability is available.
	// When false, images stay inline in the record document.
	ImagesEnabled bool
}

// RecordPath is the badger directory holding the collection document.
func (s StorageConfig) RecordPath() string {
	return filepath.Join(s.DataDir, "records")
}

// BlobPath is the SQLite file holding image payloads.
func (s StorageConfig) BlobPath() string {
	return filepath.Join(s.DataDir, "images.db")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	RateLimit    int // requests per minute per client; 0 disables limiting
}

// Load parses global flags from args and builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
//
// Parsing stops at the first non-flag argument; the remainder is returned.
func Load(args []string) (*Config, []string, error) {
	// Define global flags. Subcommand flags are parsed by the command itself.
	fs := flag.NewFlagSet("bricks", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Usage = func() {}

	env := fs.String("env", "", "Environment (development, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	dataDir := fs.StringP("data-dir", "d", "", "Directory holding the collection (default ~/.noob-bricks)")
	images := fs.String("images", "", "Store images in the blob store (default true)")
	addr := fs.String("addr", "", "HTTP listen address (default 127.0.0.1:8321)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default 30s)")
	rateLimit := fs.String("rate-limit", "", "Requests per minute per client (default 120)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error; the caller prints usage.
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	// A missing .env file is not an error; existing env vars win.
	_ = godotenv.Load(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "BRICKS_ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "BRICKS_LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "BRICKS_LOG_FORMAT", ""),
		},
		Storage: StorageConfig{
			DataDir:       getConfigValue(*dataDir, "BRICKS_DATA_DIR", ""),
			ImagesEnabled: getBoolConfigValue(*images, "BRICKS_IMAGES_ENABLED", true),
		},
		Server: ServerConfig{
			Addr:        getConfigValue(*addr, "BRICKS_ADDR", "127.0.0.1:8321"),
			IdleTimeout: 60 * time.Second,
			RateLimit:   getIntConfigValue(*rateLimit, "BRICKS_RATE_LIMIT", 120),
		},
	}

	// Parse server timeouts.
	var err error
	cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "BRICKS_READ_TIMEOUT", "15s")
	if err != nil {
		return nil, nil, err
	}
	cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "BRICKS_WRITE_TIMEOUT", "30s")
	if err != nil {
		return nil, nil, err
	}

	// Expand and validate the data dir.
	if err := cfg.expandDataDir(); err != nil {
		return nil, nil, fmt.Errorf("invalid data dir: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, fs.Args(), nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	// The data dir always has a value once expanded; empty means a broken home dir.
	if c.Storage.DataDir == "" {
		return errors.New("data dir cannot be empty after expansion")
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimit)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Storage.DataDir, filepath.Join(homeDir, ".noob-bricks"))
	if err != nil {
		return err
	}
	c.Storage.DataDir = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable (including values loaded from .env).
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a time.Duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}
