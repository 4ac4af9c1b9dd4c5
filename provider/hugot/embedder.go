// Package hugot embeds texts locally with a sentence transformer ONNX model.
package hugot

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/provider"
)

const (
	DefaultModel        = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultOnnxFilePath = "onnx/model.onnx"
	// DefaultDimensions of all-MiniLM-L6-v2 embeddings
	DefaultDimensions = 384
)

var _ provider.Embedder = (*Embedder)(nil)

// Embedder runs a feature extraction pipeline in process.
type Embedder struct {
	model   string
	session *hugot.Session
	run     func(texts []string) ([][]float32, error)
}

// NewEmbedder prepares the model (downloading it if needed) and starts a
// pure Go hugot session. An empty model name uses all-MiniLM-L6-v2.
func NewEmbedder(modelName string) (*Embedder, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	modelPath, err := helper.PrepareModel(modelName, DefaultOnnxFilePath)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &Embedder{
		model:   modelName,
		session: session,
		run: func(texts []string) ([][]float32, error) {
			result, err := sentencePipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
	}, nil
}

// Embed runs the pipeline on all texts at once.
// The context is not used, inference runs in process.
func (e *Embedder) Embed(ctx context.Context, input ...string) ([][]float32, error) {
	if len(input) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := e.run(input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(embeddings) != len(input) {
		return nil, fmt.Errorf("no embedding generated for %d of %d texts", len(input)-len(embeddings), len(input))
	}

	return embeddings, nil
}

func (e *Embedder) Model() string {
	return e.model
}

// Close destroys the hugot session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
