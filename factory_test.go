package ragengine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider/ollama"
	"github.com/siherrmann/ragengine/provider/openai"
	"github.com/siherrmann/ragengine/store/memory"
	"github.com/siherrmann/ragengine/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("Default config uses memory and ollama", func(t *testing.T) {
		engine, err := NewEngineFromConfig(ctx, nil)
		require.NoError(t, err)
		defer engine.Close()

		assert.IsType(t, &memory.Client{}, engine.Client)
		assert.IsType(t, &ollama.Embedder{}, engine.Embedder)
		assert.IsType(t, &ollama.Generator{}, engine.Generator)
		assert.Equal(t, "nomic-embed-text:latest", engine.Embedder.Model())
		assert.Equal(t, "gemma3:4b", engine.Generator.Model())
	})

	t.Run("Persist path selects sqlite", func(t *testing.T) {
		config := model.DefaultEngineConfig()
		config.Store.Type = model.StoreTypeSQLite
		config.PersistPath = t.TempDir()

		engine, err := NewEngineFromConfig(ctx, config)
		require.NoError(t, err)
		defer engine.Close()

		assert.IsType(t, &sqlite.Client{}, engine.Client)
		assert.FileExists(t, filepath.Join(config.PersistPath, sqlite.FileName))
	})

	t.Run("OpenAI providers are created from config", func(t *testing.T) {
		config := model.DefaultEngineConfig()
		config.Embedder = model.ProviderConfig{Type: model.ProviderTypeOpenAI, Model: "text-embedding-3-small", BaseURL: "http://localhost:8080/v1"}
		config.Generator = model.ProviderConfig{Type: model.ProviderTypeOpenAI, Model: "gpt-4o-mini", BaseURL: "http://localhost:8080/v1"}

		engine, err := NewEngineFromConfig(ctx, config)
		require.NoError(t, err)
		defer engine.Close()

		assert.IsType(t, &openai.Embedder{}, engine.Embedder)
		assert.IsType(t, &openai.Generator{}, engine.Generator)
	})

	t.Run("Invalid config is rejected", func(t *testing.T) {
		config := model.DefaultEngineConfig()
		config.Store.Type = "chroma"

		_, err := NewEngineFromConfig(ctx, config)
		assert.Error(t, err)
	})
}

func TestNewProviders(t *testing.T) {
	t.Run("Unsupported embedder type", func(t *testing.T) {
		_, err := NewEmbedder(model.ProviderConfig{Type: "unknown"})
		assert.Error(t, err)
	})

	t.Run("Hugot cannot generate answers", func(t *testing.T) {
		_, err := NewGenerator(model.ProviderConfig{Type: model.ProviderTypeHugot})
		assert.Error(t, err)
	})

	t.Run("Unsupported store type", func(t *testing.T) {
		config := model.DefaultEngineConfig()
		config.Store.Type = "unknown"

		_, err := NewStoreClient(config, helper.NewLogger(io.Discard, slog.LevelInfo))
		assert.Error(t, err)
	})
}

type closingProvider struct {
	closed bool
	err    error
}

func (p *closingProvider) Close() error {
	p.closed = true
	return p.err
}

func TestCloseProviders(t *testing.T) {
	t.Run("Closable providers are closed and others skipped", func(t *testing.T) {
		embedder := &closingProvider{}
		generator := ollama.NewGenerator(ollama.Config{})

		err := closeProviders(embedder, generator)
		assert.NoError(t, err)
		assert.True(t, embedder.closed, "Expected the embedder session to be closed")
	})

	t.Run("First close error is returned after closing all", func(t *testing.T) {
		first := &closingProvider{err: errors.New("session busy")}
		second := &closingProvider{err: errors.New("second failure")}

		err := closeProviders(first, second)
		require.Error(t, err)
		assert.Equal(t, "session busy", err.Error())
		assert.True(t, second.closed)
	})
}

func TestParseLevel(t *testing.T) {
	t.Run("Known levels are parsed", func(t *testing.T) {
		assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
		assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	})

	t.Run("Unknown levels fall back to info", func(t *testing.T) {
		assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
		assert.Equal(t, slog.LevelInfo, parseLevel(""))
	})
}
