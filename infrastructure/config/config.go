// Package config loads service settings from an optional TOML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	LogLevel  string          `toml:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// AuthConfig contains the token secret and the credential table.
type AuthConfig struct {
	SecretKey string        `toml:"secret_key"`
	TokenTTL  time.Duration `toml:"token_ttl"`
	// Users is the JSON user table: {"name": {"password": "...", "role": "user"}}.
	Users string `toml:"users"`
}

// EmbeddingConfig selects the embedding endpoint and its vector size.
type EmbeddingConfig struct {
	BaseURL   string        `toml:"base_url"`
	APIKey    string        `toml:"api_key"`
	Model     string        `toml:"model"`
	Dimension int           `toml:"dimension"`
	Timeout   time.Duration `toml:"timeout"`
}

// QdrantConfig contains vector store connection settings.
type QdrantConfig struct {
	Addr       string        `toml:"addr"`
	APIKey     string        `toml:"api_key"`
	Collection string        `toml:"collection"`
	Timeout    time.Duration `toml:"timeout"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":5000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Auth: AuthConfig{TokenTTL: 24 * time.Hour},
		Embedding: EmbeddingConfig{
			Model:     "all-MiniLM-L6-v2",
			Dimension: 384,
			Timeout:   30 * time.Second,
		},
		Qdrant: QdrantConfig{
			Addr:       "localhost:6334",
			Collection: "songs_collection_database",
			Timeout:    10 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the TOML file at path (skipped when path is empty),
// then variables from .env in the working directory, then the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &c.Server.Addr)
	dur("HTTP_READ_TIMEOUT", &c.Server.ReadTimeout)
	dur("HTTP_WRITE_TIMEOUT", &c.Server.WriteTimeout)

	str("JWT_SECRET_KEY", &c.Auth.SecretKey)
	dur("JWT_ACCESS_TOKEN_EXPIRES", &c.Auth.TokenTTL)
	str("USERS", &c.Auth.Users)

	str("EMBEDDING_BASE_URL", &c.Embedding.BaseURL)
	str("OPENAI_API_KEY", &c.Embedding.APIKey)
	str("EMBEDDING_API_KEY", &c.Embedding.APIKey)
	str("EMBEDDING_MODEL", &c.Embedding.Model)
	dur("EMBEDDING_TIMEOUT", &c.Embedding.Timeout)
	if v, ok := lookup("EMBEDDING_DIM"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("EMBEDDING_DIM: %w", err))
		} else {
			c.Embedding.Dimension = n
		}
	}

	str("QDRANT_ADDR", &c.Qdrant.Addr)
	str("QDRANT_API_KEY", &c.Qdrant.APIKey)
	str("QDRANT_COLLECTION_NAME", &c.Qdrant.Collection)
	dur("VECTORSTORE_TIMEOUT", &c.Qdrant.Timeout)

	str("LOG_LEVEL", &c.LogLevel)

	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("24h") and bare integers as seconds ("86400").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.SecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.Auth.Users == "" {
		errs = append(errs, errors.New("USERS is required"))
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, errors.New("embedding dimension must be positive"))
	}
	if c.Embedding.Timeout < 0 || c.Qdrant.Timeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// VectorSize is the dimension of stored vectors: three concatenated embeddings.
func (c *Config) VectorSize() int {
	return 3 * c.Embedding.Dimension
}
