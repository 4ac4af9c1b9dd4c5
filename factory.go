package ragengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
	"github.com/siherrmann/ragengine/provider/hugot"
	"github.com/siherrmann/ragengine/provider/ollama"
	"github.com/siherrmann/ragengine/provider/openai"
	"github.com/siherrmann/ragengine/store"
	"github.com/siherrmann/ragengine/store/memory"
	"github.com/siherrmann/ragengine/store/postgres"
	"github.com/siherrmann/ragengine/store/sqlite"
	loadSql "github.com/siherrmann/ragengine/sql"
)

// NewEngineFromConfig builds the store client, embedder and generator named
// by config and opens the engine. A nil config uses DefaultEngineConfig.
func NewEngineFromConfig(ctx context.Context, config *model.EngineConfig) (*Engine, error) {
	if config == nil {
		config = model.DefaultEngineConfig()
	}

	err := config.Validate()
	if err != nil {
		return nil, helper.NewError("validate config", err)
	}

	logger := helper.NewLogger(config.LogWriter(), parseLevel(config.LogLevel))

	embedder, err := NewEmbedder(config.Embedder)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	generator, err := NewGenerator(config.Generator)
	if err != nil {
		closeProviders(embedder)
		return nil, helper.NewError("create generator", err)
	}

	client, err := NewStoreClient(config, logger)
	if err != nil {
		closeProviders(embedder, generator)
		return nil, helper.NewError("create store client", err)
	}

	engine, err := NewEngine(ctx, client, embedder, generator, config)
	if err != nil {
		closeProviders(embedder, generator)
		client.Close()
		return nil, err
	}

	return engine, nil
}

// NewStoreClient opens the collection backend selected by config.Store.Type.
func NewStoreClient(config *model.EngineConfig, logger *slog.Logger) (store.Client, error) {
	switch config.Store.Type {
	case model.StoreTypeMemory:
		return memory.NewClient(), nil
	case model.StoreTypeSQLite:
		return sqlite.NewClient(config.PersistPath, logger)
	case model.StoreTypePostgres:
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, helper.NewError("database configuration", err)
		}

		db := helper.NewDatabase("ragengine", dbConfig, logger)
		err = loadSql.Init(db.Instance)
		if err != nil {
			db.Close()
			return nil, helper.NewError("initialize database extensions", err)
		}

		client, err := postgres.NewClient(db, config.Store.EmbeddingDim)
		if err != nil {
			db.Close()
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Store.Type)
	}
}

// NewEmbedder creates the embedding provider selected by config.Type.
func NewEmbedder(config model.ProviderConfig) (provider.Embedder, error) {
	switch config.Type {
	case model.ProviderTypeOllama:
		return ollama.NewEmbedder(ollama.Config{
			BaseURL: config.BaseURL,
			Model:   config.Model,
			Timeout: config.Timeout(),
		}), nil
	case model.ProviderTypeOpenAI:
		return openai.NewEmbedder(openai.Config{
			BaseURL: config.BaseURL,
			APIKey:  config.APIKey(),
			Model:   config.Model,
			Timeout: config.Timeout(),
		}), nil
	case model.ProviderTypeHugot:
		return hugot.NewEmbedder(config.Model)
	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", config.Type)
	}
}

// NewGenerator creates the answer generator selected by config.Type.
func NewGenerator(config model.ProviderConfig) (provider.Generator, error) {
	switch config.Type {
	case model.ProviderTypeOllama:
		return ollama.NewGenerator(ollama.Config{
			BaseURL: config.BaseURL,
			Model:   config.Model,
			Timeout: config.Timeout(),
		}), nil
	case model.ProviderTypeOpenAI:
		return openai.NewGenerator(openai.Config{
			BaseURL: config.BaseURL,
			APIKey:  config.APIKey(),
			Model:   config.Model,
			Timeout: config.Timeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported generator type: %s", config.Type)
	}
}
