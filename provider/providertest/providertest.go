// Package providertest provides deterministic embedders and generators for tests.
package providertest

import (
	"context"
	"hash/fnv"
	"iter"
	"strings"
	"sync"
	"unicode"

	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
)

var (
	_ provider.Embedder  = (*Embedder)(nil)
	_ provider.Generator = (*Generator)(nil)
)

// Embedder is a bag-of-words embedder: every lower-cased word is hashed into
// one of Dimensions buckets. Texts sharing words get a small cosine distance.
type Embedder struct {
	Dimensions int
	// Err is returned by Embed when set.
	Err error

	mu    sync.Mutex
	calls [][]string
}

// NewEmbedder returns a bag-of-words embedder with 64 dimensions.
func NewEmbedder() *Embedder {
	return &Embedder{Dimensions: 64}
}

func (e *Embedder) Embed(ctx context.Context, input ...string) ([][]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, append([]string(nil), input...))
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}

	embeddings := make([][]float32, len(input))
	for i, text := range input {
		embeddings[i] = e.vector(text)
	}
	return embeddings, nil
}

func (e *Embedder) Model() string {
	return "bag-of-words"
}

// Calls returns the inputs of every Embed call so far.
func (e *Embedder) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([][]string(nil), e.calls...)
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.Dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(e.Dimensions)]++
	}
	return v
}

// Generator answers with fixed fragments. Chat returns them joined,
// ChatStream yields them one by one.
type Generator struct {
	Fragments []string
	// Err is returned by Chat and yielded by ChatStream when set.
	Err error

	mu       sync.Mutex
	messages [][]model.Message
}

// NewGenerator returns a generator answering with the given fragments.
func NewGenerator(fragments ...string) *Generator {
	return &Generator{Fragments: fragments}
}

func (g *Generator) Chat(ctx context.Context, messages []model.Message) (*model.ChatResponse, error) {
	g.record(messages)
	if g.Err != nil {
		return nil, g.Err
	}

	return &model.ChatResponse{
		Model:   g.Model(),
		Message: model.Message{Role: model.RoleAssistant, Content: strings.Join(g.Fragments, "")},
		Done:    true,
	}, nil
}

func (g *Generator) ChatStream(ctx context.Context, messages []model.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		g.record(messages)
		if g.Err != nil {
			yield("", g.Err)
			return
		}
		for _, fragment := range g.Fragments {
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

func (g *Generator) Model() string {
	return "fixed-answer"
}

// Messages returns the messages of every call so far.
func (g *Generator) Messages() [][]model.Message {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([][]model.Message(nil), g.messages...)
}

func (g *Generator) record(messages []model.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.messages = append(g.messages, messages)
}
