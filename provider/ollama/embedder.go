package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/provider"
)

var _ provider.Embedder = (*Embedder)(nil)

// Embedder generates embeddings with the /api/embed endpoint.
type Embedder struct {
	client *client
	model  string
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates a new Ollama embedder.
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

	resp, err := e.client.post(ctx, "/api/embed", embedRequest{
		Model: e.model,
		Input: input,
	})
	if err != nil {
		return nil, helper.NewError("ollama embed", err)
	}
	defer resp.Body.Close()

	var embedResp embedResponse
	err = json.NewDecoder(resp.Body).Decode(&embedResp)
	if err != nil {
		return nil, helper.NewError("ollama embed", fmt.Errorf("decode response: %w", err))
	}

	if len(embedResp.Embeddings) != len(input) {
		return nil, helper.NewError("ollama embed", fmt.Errorf("got %d embeddings for %d texts", len(embedResp.Embeddings), len(input)))
	}

	return embedResp.Embeddings, nil
}

func (e *Embedder) Model() string {
	return e.model
}

// Ping validates the server is reachable without running inference.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.client.ping(ctx)
}
