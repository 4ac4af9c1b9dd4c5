package ragengine

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/siherrmann/ragengine/core/pipeline"
	"github.com/siherrmann/ragengine/core/prompt"
	"github.com/siherrmann/ragengine/core/retrieval"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
	"github.com/siherrmann/ragengine/store"
)

// ErrInvalidInput is returned for text that cannot be ingested.
var ErrInvalidInput = pipeline.ErrInvalidText

// Engine ingests text into a collection and answers questions from it
type Engine struct {
	Client     store.Client
	Collection store.Collection
	Embedder   provider.Embedder
	Generator  provider.Generator
	Pipeline   *pipeline.Pipeline
	Retriever  *retrieval.Retriever
	config     *model.EngineConfig
	// Logging
	log *slog.Logger
}

// NewEngine opens (or creates) the configured collection on client with embedder
// bound to it. A nil config uses DefaultEngineConfig.
func NewEngine(ctx context.Context, client store.Client, embedder provider.Embedder, generator provider.Generator, config *model.EngineConfig) (*Engine, error) {
	if client == nil {
		return nil, helper.NewError("engine validation", fmt.Errorf("store client is nil"))
	}
	if embedder == nil {
		return nil, helper.NewError("engine validation", fmt.Errorf("embedder is nil"))
	}
	if generator == nil {
		return nil, helper.NewError("engine validation", fmt.Errorf("generator is nil"))
	}
	if config == nil {
		config = model.DefaultEngineConfig()
	}

	logger := helper.NewLogger(config.LogWriter(), parseLevel(config.LogLevel))

	splitter, err := pipeline.NewTextSplitter(config.Chunker.Capacity, config.Chunker.Overlap)
	if err != nil {
		return nil, helper.NewError("create text splitter", err)
	}

	collection, err := client.GetOrCreateCollection(ctx, config.CollectionName, embedder)
	if err != nil {
		return nil, helper.NewError("open collection", err)
	}

	retriever, err := retrieval.NewRetriever(collection, logger)
	if err != nil {
		return nil, helper.NewError("create retriever", err)
	}

	logger.Info("Initialized engine",
		slog.String("collection", collection.Name()),
		slog.String("embedder", embedder.Model()),
		slog.String("generator", generator.Model()),
	)

	return &Engine{
		Client:     client,
		Collection: collection,
		Embedder:   embedder,
		Generator:  generator,
		Pipeline:   pipeline.NewPipeline(splitter.ChunkFunc()),
		Retriever:  retriever,
		config:     config,
		log:        logger,
	}, nil
}

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.log = logger
}

// Close closes the store client and a closable embedder or generator
func (e *Engine) Close() error {
	firstErr := closeProviders(e.Embedder, e.Generator)
	if err := e.Client.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// closeProviders closes every provider implementing io.Closer and returns
// the first error.
func closeProviders(providers ...interface{}) error {
	var firstErr error
	for _, p := range providers {
		if closer, ok := p.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// AddData chunks data and writes the unique chunks to the collection.
// Without upsert an already stored chunk fails the whole call with
// store.ErrDuplicateID and nothing is written.
// Returns the number of unique chunks written.
func (e *Engine) AddData(ctx context.Context, data string, upsert bool) (int, error) {
	return e.AddDocuments(ctx, []string{data}, upsert)
}

// AddDocuments is AddData for several texts, deduplicated across all of them.
func (e *Engine) AddDocuments(ctx context.Context, data []string, upsert bool) (int, error) {
	chunks, err := e.Pipeline.Process(data...)
	if err != nil {
		return 0, helper.NewError("process data", err)
	}

	documents := make([]*model.Document, 0, len(chunks))
	for _, chunk := range chunks {
		documents = append(documents, chunk.ToDocument(nil))
	}

	return e.write(ctx, documents, upsert)
}

// AddSources ingests sources, recording their title and path in the chunk metadata.
func (e *Engine) AddSources(ctx context.Context, upsert bool, sources ...*model.Source) (int, error) {
	documents, err := e.Pipeline.ProcessSources(sources...)
	if err != nil {
		return 0, helper.NewError("process sources", err)
	}

	return e.write(ctx, documents, upsert)
}

func (e *Engine) write(ctx context.Context, documents []*model.Document, upsert bool) (int, error) {
	if len(documents) == 0 {
		e.log.Debug("No chunks to add")
		return 0, nil
	}

	var err error
	if upsert {
		err = e.Collection.Upsert(ctx, documents)
	} else {
		err = e.Collection.Add(ctx, documents)
	}
	if err != nil {
		return 0, err
	}

	e.log.Info("Added chunks", slog.String("collection", e.Collection.Name()), slog.Int("count", len(documents)), slog.Bool("upsert", upsert))

	return len(documents), nil
}

// ClearCollection deletes every document but keeps the collection itself.
func (e *Engine) ClearCollection(ctx context.Context) error {
	result, err := e.Collection.Get(ctx)
	if err != nil {
		return err
	}

	err = e.Collection.Delete(ctx, result.IDs)
	if err != nil {
		return err
	}

	e.log.Info("Cleared collection", slog.String("collection", e.Collection.Name()), slog.Int("deleted", len(result.IDs)))

	return nil
}

// QueryData returns the nResults nearest documents to query without filtering.
// nResults of 0 uses the default of 30.
func (e *Engine) QueryData(ctx context.Context, query string, nResults int) (*model.QueryResult, error) {
	return e.Retriever.QueryData(ctx, query, nResults)
}

// Retrieve returns the documents closer to query than the max distance.
func (e *Engine) Retrieve(ctx context.Context, query string, config *model.AskConfig) ([]string, error) {
	return e.Retriever.Retrieve(ctx, query, e.askConfig(config))
}

// Ask retrieves context for query and returns the complete generated answer.
func (e *Engine) Ask(ctx context.Context, query string, config *model.AskConfig) (string, error) {
	messages, err := e.prepare(ctx, query, config)
	if err != nil {
		return "", err
	}

	response, err := e.Generator.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	return response.Message.Content, nil
}

// AskStream retrieves context for query and streams the generated answer.
// Retrieval errors are returned directly, generation errors are yielded by
// the sequence. The sequence can be ranged over once.
func (e *Engine) AskStream(ctx context.Context, query string, config *model.AskConfig) (iter.Seq2[string, error], error) {
	messages, err := e.prepare(ctx, query, config)
	if err != nil {
		return nil, err
	}

	return e.Generator.ChatStream(ctx, messages), nil
}

func (e *Engine) prepare(ctx context.Context, query string, config *model.AskConfig) ([]model.Message, error) {
	relevant, err := e.Retrieve(ctx, query, config)
	if err != nil {
		return nil, err
	}

	p, err := prompt.Compose(relevant, query)
	if err != nil {
		return nil, err
	}

	e.log.Info("Answering question", slog.Int("context_documents", len(relevant)), slog.String("generator", e.Generator.Model()))

	return p.Messages(), nil
}

func (e *Engine) askConfig(config *model.AskConfig) *model.AskConfig {
	if config != nil {
		return config
	}
	return &e.config.Ask
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	err := l.UnmarshalText([]byte(level))
	if err != nil {
		return slog.LevelInfo
	}
	return l
}
