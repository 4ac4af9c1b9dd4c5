package openai

import (
	"context"
	"fmt"
	"sort"

	"github.com/openai/openai-go"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/provider"
)

var _ provider.Embedder = (*Embedder)(nil)

// Embedder generates embeddings with the embeddings endpoint.
type Embedder struct {
	client openai.Client
	model  string
}

// NewEmbedder creates a new OpenAI compatible embedder.
func NewEmbedder(cfg Config) *Embedder {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	return &Embedder{
		client: newClient(cfg),
		model:  cfg.Model,
	}
}

// Embed embeds all texts in a single request.
func (e *Embedder) Embed(ctx context.Context, input ...string) ([][]float32, error) {
	if len(input) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: input,
		},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, helper.NewError("openai embed", err)
	}

	if len(resp.Data) != len(input) {
		return nil, helper.NewError("openai embed", fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(input)))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	embeddings := make([][]float32, len(data))
	for i, d := range data {
		embedding := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			embedding[j] = float32(v)
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}

func (e *Embedder) Model() string {
	return e.model
}
