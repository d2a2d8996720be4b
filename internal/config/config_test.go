package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Blob.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
database:
  driver: sqlite
  dsn: /tmp/loupe.db
embeddings:
  provider: ollama
  model: nomic-embed-text
kafka:
  enabled: true
  brokers: ["broker1:9092"]
search:
  hybrid_semantic_weight: 0.7
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/loupe.db", cfg.Database.DSN)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 0.7, cfg.Search.HybridSemanticWeight)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
database:
  driver: sqlite
`), 0o644))

	t.Setenv("LOUPE_SERVER_ADDR", ":7070")
	t.Setenv("LOUPE_DATABASE_DRIVER", "postgres")
	t.Setenv("LOUPE_EMBEDDINGS_DIMENSIONS", "1024")
	t.Setenv("LOUPE_VISION_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 1024, cfg.Embeddings.Dimensions)
	assert.True(t, cfg.Vision.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
