package provider

import (
	"context"
	"fmt"
	"iter"

	"github.com/siherrmann/ragengine/model"
)

// Embedder turns texts into embedding vectors.
// The result has one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, input ...string) ([][]float32, error)
	Model() string
}

// Generator answers chat messages with a language model.
type Generator interface {
	Chat(ctx context.Context, messages []model.Message) (*model.ChatResponse, error)
	// ChatStream yields the answer in fragments. A transport or provider
	// error is yielded once and ends the sequence.
	ChatStream(ctx context.Context, messages []model.Message) iter.Seq2[string, error]
	Model() string
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	embeddings, err := EmbedChecked(ctx, embedder, text)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedChecked embeds the input and verifies one vector came back per text.
func EmbedChecked(ctx context.Context, embedder Embedder, input ...string) ([][]float32, error) {
	if len(input) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := embedder.Embed(ctx, input...)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(input) {
		return nil, fmt.Errorf("embedder %s returned %d embeddings for %d texts", embedder.Model(), len(embeddings), len(input))
	}
	return embeddings, nil
}

// ErrorSeq returns a stream that only yields err.
func ErrorSeq(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}
