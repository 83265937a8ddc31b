// Package config provides environment-driven configuration for the
// classifier.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Secret wraps a sensitive string to prevent accidental logging or
// marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values. It is immutable after
// Load.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	CORSOrigins []string

	EmbedModel string
	EmbedDim   int
	LLMModel   string

	GCPProject  string
	GCPLocation string

	RRFK            int
	RetrievalN      int
	TopK            int
	EmbedBatchSize  int
	EmbedRetries    int
	LLMRetries      int
	DBRetries       int
	StrictRetrieval bool

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "8080"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		EmbedModel:  envOrDefault("EMBED_MODEL", "gemini-embedding-001"),
		LLMModel:    envOrDefault("LLM_MODEL", "gemini-2.0-flash"),
		GCPProject:  envOrDefault("GCP_PROJECT", ""),
		GCPLocation: envOrDefault("GCP_LOCATION", "us-central1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
	}

	ints := []struct {
		dst      *int
		key      string
		fallback int
		min, max int
	}{
		{&cfg.EmbedDim, "EMBED_DIM", 768, 1, 4096},
		{&cfg.RRFK, "RRF_K", 60, 1, 10000},
		{&cfg.RetrievalN, "RETRIEVAL_N", 20, 5, 100},
		{&cfg.TopK, "TOP_K", 5, 1, 20},
		{&cfg.EmbedBatchSize, "EMBED_BATCH_SIZE", 50, 1, 250},
		{&cfg.EmbedRetries, "EMBED_RETRIES", 3, 1, 10},
		{&cfg.LLMRetries, "LLM_RETRIES", 3, 1, 10},
		{&cfg.DBRetries, "DB_RETRIES", 3, 1, 10},
	}

	for _, v := range ints {
		n, err := strconv.Atoi(envOrDefault(v.key, strconv.Itoa(v.fallback)))
		if err != nil || n < v.min || n > v.max {
			return nil, fmt.Errorf("%s must be an integer between %d and %d", v.key, v.min, v.max)
		}

		*v.dst = n
	}

	strict, err := strconv.ParseBool(envOrDefault("STRICT_RETRIEVAL", "true"))
	if err != nil {
		return nil, fmt.Errorf("STRICT_RETRIEVAL must be a boolean")
	}
	cfg.StrictRetrieval = strict

	cfg.CORSOrigins = splitTrimmed(envOrDefault("CORS_ORIGINS", "http://localhost:3000"))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateModels(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if c.TopK > c.RetrievalN {
		return fmt.Errorf("TOP_K (%d) must not exceed RETRIEVAL_N (%d)", c.TopK, c.RetrievalN)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		sslmode := dbURL.Query().Get("sslmode")
		if sslmode == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	return nil
}

func (c *Config) validateModels() error {
	if c.EmbedModel == "" {
		return fmt.Errorf("EMBED_MODEL must not be empty")
	}

	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL must not be empty")
	}

	if c.GCPProject == "" {
		return fmt.Errorf("GCP_PROJECT is required")
	}

	if c.GCPLocation == "" {
		return fmt.Errorf("GCP_LOCATION must not be empty")
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
