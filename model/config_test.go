package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "ragengine.yaml")
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
	return path
}

func TestDefaultAskConfig(t *testing.T) {
	config := DefaultAskConfig()

	assert.Equal(t, 30, config.NResults, "Default NResults should be 30")
	assert.Equal(t, 0.8, config.MaxDistance, "Default MaxDistance should be 0.8")
}

func TestDefaultEngineConfig(t *testing.T) {
	config := DefaultEngineConfig()

	assert.Equal(t, "default", config.CollectionName)
	assert.Equal(t, StoreTypeMemory, config.Store.Type)
	assert.Equal(t, 100, config.Chunker.Capacity, "Default chunk capacity should be 100")
	assert.Equal(t, 50, config.Chunker.Overlap, "Default chunk overlap should be 50")
	assert.Equal(t, "nomic-embed-text:latest", config.Embedder.Model)
	assert.Equal(t, DefaultAskConfig(), config.Ask)
	assert.NoError(t, config.Validate(), "Expected default configuration to be valid")
}

func TestLoadEngineConfig(t *testing.T) {
	t.Run("Load partial file on top of defaults", func(t *testing.T) {
		path := writeConfig(t, `
collection_name: rag_engine
generator:
  model: llama3.1:8b-instruct-q6_K
ask:
  max_distance: 0.5
`)

		config, err := LoadEngineConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "rag_engine", config.CollectionName)
		assert.Equal(t, "llama3.1:8b-instruct-q6_K", config.Generator.Model)
		assert.Equal(t, ProviderTypeOllama, config.Generator.Type, "Expected generator type to keep its default")
		assert.Equal(t, 300*time.Second, config.Generator.Timeout())
		assert.Equal(t, 0.5, config.Ask.MaxDistance)
		assert.Equal(t, 30, config.Ask.NResults, "Expected n_results to keep its default")
		assert.Equal(t, StoreTypeMemory, config.Store.Type)
	})

	t.Run("Persist path selects the SQLite store", func(t *testing.T) {
		path := writeConfig(t, `
persist_path: ./data
`)

		config, err := LoadEngineConfig(path)
		require.NoError(t, err)
		assert.Equal(t, StoreTypeSQLite, config.Store.Type)
		assert.Equal(t, "./data", config.PersistPath)
	})

	t.Run("Explicit store type wins over persist path", func(t *testing.T) {
		path := writeConfig(t, `
persist_path: ./data
store:
  type: postgres
  embedding_dim: 384
`)

		config, err := LoadEngineConfig(path)
		require.NoError(t, err)
		assert.Equal(t, StoreTypePostgres, config.Store.Type)
		assert.Equal(t, 384, config.Store.EmbeddingDim)
	})

	t.Run("Invalid chunker settings are rejected", func(t *testing.T) {
		path := writeConfig(t, `
chunker:
  capacity: 50
  overlap: 50
`)

		_, err := LoadEngineConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overlap < capacity")
	})

	t.Run("Unknown provider type is rejected", func(t *testing.T) {
		path := writeConfig(t, `
generator:
  type: hugot
`)

		_, err := LoadEngineConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported generator type")
	})

	t.Run("Unknown log output is rejected", func(t *testing.T) {
		path := writeConfig(t, "log_output: syslog\n")

		_, err := LoadEngineConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported log_output")
	})

	t.Run("Missing file returns an error", func(t *testing.T) {
		_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})
}

func TestEngineConfigLogWriter(t *testing.T) {
	config := DefaultEngineConfig()
	assert.Equal(t, os.Stdout, config.LogWriter(), "Expected logs on stdout by default")

	config.LogOutput = LogOutputStderr
	assert.Equal(t, os.Stderr, config.LogWriter())
}

func TestProviderConfigAPIKey(t *testing.T) {
	t.Setenv("RAGENGINE_TEST_KEY", "secret")

	assert.Equal(t, "secret", ProviderConfig{APIKeyEnv: "RAGENGINE_TEST_KEY"}.APIKey())
	assert.Equal(t, "", ProviderConfig{}.APIKey())
}
