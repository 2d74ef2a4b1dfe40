// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Cache     CacheConfig
	Synthesis SynthesisConfig
	Narration NarrationConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 120s, narration responses carry audio)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// CacheConfig holds segment cache configuration.
type CacheConfig struct {
	// Path is the directory for the badger segment cache (default: ~/ReadAloud/cache)
	Path string
	// InMemory runs badger without disk persistence (used in tests)
	InMemory bool
}

// SynthesisConfig holds speech synthesis provider configuration.
type SynthesisConfig struct {
	// APIKey authenticates against the synthesis provider. Passed explicitly
	// to the client at construction; never read from a package-level global.
	APIKey string
	// BaseURL overrides the provider endpoint (default: provider production URL)
	BaseURL string
	// ModelID selects the synthesis model (default: eleven_multilingual_v2)
	ModelID string
	// OutputFormat is the requested audio container (default: mp3_44100_128)
	OutputFormat string
	// RequestTimeout bounds a single synthesis call (default: 60s)
	RequestTimeout time.Duration
	// RequestsPerSecond rate-limits outbound provider calls per voice (default: 4)
	RequestsPerSecond float64
}

// NarrationConfig holds narration pipeline configuration.
type NarrationConfig struct {
	// MaxSegmentChars is the maximum segment size in characters (default: 2000)
	MaxSegmentChars int
	// Concurrency is the maximum simultaneous synthesis calls per narration (default: 3)
	Concurrency int
	// FormatVersion partitions the segment cache key space. Bump it whenever
	// cached audio metadata semantics change; old entries are orphaned, not
	// corrupted.
	FormatVersion int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 120s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	cachePath := flag.String("cache-path", "", "Path for the segment cache")

	synthAPIKey := flag.String("synthesis-api-key", "", "Synthesis provider API key")
	synthBaseURL := flag.String("synthesis-base-url", "", "Synthesis provider base URL")
	synthModel := flag.String("synthesis-model", "", "Synthesis model ID")
	synthTimeout := flag.String("synthesis-timeout", "", "Synthesis request timeout (default: 60s)")

	maxSegmentChars := flag.String("max-segment-chars", "", "Maximum segment size in characters (default: 2000)")
	concurrency := flag.String("synthesis-concurrency", "", "Max concurrent synthesis calls (default: 3)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Cache: CacheConfig{
			Path: getConfigValue(*cachePath, "CACHE_PATH", ""),
		},
		Synthesis: SynthesisConfig{
			APIKey:            getConfigValue(*synthAPIKey, "SYNTHESIS_API_KEY", ""),
			BaseURL:           getConfigValue(*synthBaseURL, "SYNTHESIS_BASE_URL", ""),
			ModelID:           getConfigValue(*synthModel, "SYNTHESIS_MODEL", "eleven_multilingual_v2"),
			OutputFormat:      getConfigValue("", "SYNTHESIS_OUTPUT_FORMAT", "mp3_44100_128"),
			RequestsPerSecond: getFloatConfigValue("", "SYNTHESIS_RPS", 4),
		},
		Narration: NarrationConfig{
			MaxSegmentChars: getIntConfigValue(*maxSegmentChars, "MAX_SEGMENT_CHARS", 2000),
			Concurrency:     getIntConfigValue(*concurrency, "SYNTHESIS_CONCURRENCY", 3),
			FormatVersion:   getIntConfigValue("", "CACHE_FORMAT_VERSION", 2),
		},
	}

	// Parse server timeouts.
	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "120s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Synthesis.RequestTimeout, err = parseDurationValue(*synthTimeout, "SYNTHESIS_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	// Expand cache path (defaults to ~/ReadAloud/cache).
	if err := cfg.expandCachePath(); err != nil {
		return nil, fmt.Errorf("invalid cache path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
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

	if c.Narration.MaxSegmentChars < 1 {
		return errors.New("max segment chars must be positive")
	}
	if c.Narration.Concurrency < 1 {
		return errors.New("synthesis concurrency must be positive")
	}
	if c.Synthesis.RequestTimeout <= 0 {
		return errors.New("synthesis timeout must be positive")
	}

	// APIKey may be empty in development; the synthesis client rejects
	// requests without one at call time.

	return nil
}

// expandCachePath expands ~ and makes the path absolute.
// Defaults to ~/ReadAloud/cache if not specified.
func (c *Config) expandCachePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ReadAloud", "cache")

	expanded, err := expandPath(c.Cache.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Cache.Path = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
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

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves a duration with the usual precedence and parses it.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(strings.ReplaceAll(envKey, "_", " ")), strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
