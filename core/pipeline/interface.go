package pipeline

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/siherrmann/ragengine/model"
)

// ErrInvalidText is returned for input that is not valid UTF-8.
var ErrInvalidText = errors.New("text is not valid UTF-8")

// ChunkFunc is a function that splits text into chunks
type ChunkFunc func(text string) ([]string, error)

// Pipeline turns raw text into indexed, deduplicated chunks
type Pipeline struct {
	Chunker ChunkFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc) *Pipeline {
	return &Pipeline{
		Chunker: chunker,
	}
}

// DefaultPipeline uses the default text splitter (capacity 100, overlap 50).
func DefaultPipeline() *Pipeline {
	return NewPipeline(DefaultTextSplitter().ChunkFunc())
}

// Process chunks all texts and indexes the chunks
func (p *Pipeline) Process(texts ...string) ([]*model.Chunk, error) {
	var all []string
	for i, text := range texts {
		chunks, err := p.chunk(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		all = append(all, chunks...)
	}
	return IndexChunks(all), nil
}

// ProcessSources chunks the sources into documents ready for a collection.
// A chunk repeated across sources keeps the metadata of its first source.
func (p *Pipeline) ProcessSources(sources ...*model.Source) ([]*model.Document, error) {
	seen := map[string]struct{}{}
	var documents []*model.Document
	for i, source := range sources {
		if source == nil {
			continue
		}

		chunks, err := p.chunk(source.Content)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}

		metadata := source.ChunkMetadata()
		for _, chunk := range IndexChunks(chunks) {
			if _, ok := seen[chunk.ID]; ok {
				continue
			}
			seen[chunk.ID] = struct{}{}
			documents = append(documents, chunk.ToDocument(metadata))
		}
	}
	return documents, nil
}

func (p *Pipeline) chunk(text string) ([]string, error) {
	if p.Chunker == nil {
		return nil, fmt.Errorf("pipeline has no chunker")
	}
	if !utf8.ValidString(text) {
		return nil, ErrInvalidText
	}
	return p.Chunker(text)
}
