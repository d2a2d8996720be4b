// Package config loads process configuration from a YAML file with
// environment-variable overrides. Precedence is environment, then file,
// then defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/loupe-search/loupe/pkg/blob"
	"github.com/loupe-search/loupe/pkg/kafka"
)

// Config is the full process configuration.
type Config struct {
	Server     Server       `yaml:"server"`
	Database   Database     `yaml:"database"`
	Redis      Redis        `yaml:"redis"`
	Kafka      kafka.Config `yaml:"kafka"`
	Blob       Blob         `yaml:"blob"`
	Embeddings Embeddings   `yaml:"embeddings"`
	Vision     Vision       `yaml:"vision"`
	Search     Search       `yaml:"search"`
	Fulltext   Fulltext     `yaml:"fulltext"`

	// LogLevel is an hclog level name (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `yaml:"addr"`
}

// Database selects the document store driver.
type Database struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Redis holds the suggestion store settings. An empty Addr selects the
// in-memory store.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Blob selects the raw byte store backend.
type Blob struct {
	// Backend is "local" or "s3".
	Backend string        `yaml:"backend"`
	Dir     string        `yaml:"dir"`
	S3      blob.S3Config `yaml:"s3"`
}

// Embeddings selects the embedding provider. An empty Provider disables
// the semantic path.
type Embeddings struct {
	// Provider is "ollama", "bedrock", or "mock".
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Region     string `yaml:"region"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Vision holds the image captioning settings.
type Vision struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Search carries the tunable scoring thresholds. Zero values fall back to
// the search package defaults.
type Search struct {
	SemanticDocumentThreshold float64 `yaml:"semantic_document_threshold"`
	SemanticChunkThreshold    float64 `yaml:"semantic_chunk_threshold"`
	HybridSemanticWeight      float64 `yaml:"hybrid_semantic_weight"`
	HybridKeywordWeight       float64 `yaml:"hybrid_keyword_weight"`
}

// Fulltext holds the embedded full-text index settings.
type Fulltext struct {
	Enabled   bool   `yaml:"enabled"`
	IndexPath string `yaml:"index_path"`
}

// Load reads the YAML file at path (optional) and applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "LOUPE_SERVER_ADDR")
	setString(&c.Database.Driver, "LOUPE_DATABASE_DRIVER")
	setString(&c.Database.DSN, "LOUPE_DATABASE_DSN")
	setString(&c.Redis.Addr, "LOUPE_REDIS_ADDR")
	setString(&c.Redis.Password, "LOUPE_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "LOUPE_REDIS_DB")
	setString(&c.Blob.Backend, "LOUPE_BLOB_BACKEND")
	setString(&c.Blob.Dir, "LOUPE_BLOB_DIR")
	setString(&c.Blob.S3.Bucket, "LOUPE_S3_BUCKET")
	setString(&c.Blob.S3.Region, "LOUPE_S3_REGION")
	setString(&c.Blob.S3.Endpoint, "LOUPE_S3_ENDPOINT")
	setBool(&c.Kafka.Enabled, "LOUPE_KAFKA_ENABLED")
	setString(&c.Embeddings.Provider, "LOUPE_EMBEDDINGS_PROVIDER")
	setString(&c.Embeddings.BaseURL, "LOUPE_EMBEDDINGS_BASE_URL")
	setString(&c.Embeddings.Region, "LOUPE_EMBEDDINGS_REGION")
	setString(&c.Embeddings.Model, "LOUPE_EMBEDDINGS_MODEL")
	setInt(&c.Embeddings.Dimensions, "LOUPE_EMBEDDINGS_DIMENSIONS")
	setBool(&c.Vision.Enabled, "LOUPE_VISION_ENABLED")
	setString(&c.Vision.BaseURL, "LOUPE_VISION_BASE_URL")
	setString(&c.Vision.Model, "LOUPE_VISION_MODEL")
	setBool(&c.Fulltext.Enabled, "LOUPE_FULLTEXT_ENABLED")
	setString(&c.Fulltext.IndexPath, "LOUPE_FULLTEXT_INDEX_PATH")
	setString(&c.LogLevel, "LOUPE_LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Blob.Backend == "" {
		c.Blob.Backend = "local"
	}
	if c.Blob.Dir == "" {
		c.Blob.Dir = ".loupe/blobs"
	}
	if c.Fulltext.IndexPath == "" {
		c.Fulltext.IndexPath = ".loupe/fts.index"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
