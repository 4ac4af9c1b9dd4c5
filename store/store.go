// Package store defines vector collections with a bound embedder and the
// backends implementing them.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
)

var (
	// ErrDuplicateID is returned by Add when a document id is already stored.
	ErrDuplicateID = errors.New("document id already exists")
	// ErrDimensionMismatch is returned when embeddings of different sizes meet.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Client manages named collections.
type Client interface {
	// GetOrCreateCollection opens the collection, creating it if needed.
	// Documents and queries without embeddings are embedded with embedder.
	GetOrCreateCollection(ctx context.Context, name string, embedder provider.Embedder) (Collection, error)
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	Close() error
}

// Collection is a namespace of documents searchable by cosine distance.
type Collection interface {
	Name() string
	// Add inserts the documents. If any id already exists nothing is written
	// and the error matches ErrDuplicateID.
	Add(ctx context.Context, documents []*model.Document) error
	// Upsert inserts or replaces the documents.
	Upsert(ctx context.Context, documents []*model.Document) error
	// Get returns all documents ordered by id.
	Get(ctx context.Context) (*model.GetResult, error)
	// Delete removes the documents with the given ids, unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error
	// Query returns up to nResults nearest documents per query text.
	Query(ctx context.Context, queryTexts []string, nResults int) ([]*model.QueryResult, error)
	Count(ctx context.Context) (int, error)
}

// PrepareDocuments validates the batch and embeds documents without embedding.
// With unique set, repeated ids within the batch are rejected.
func PrepareDocuments(ctx context.Context, embedder provider.Embedder, documents []*model.Document, unique bool) error {
	seen := make(map[string]struct{}, len(documents))
	var missing []*model.Document
	for i, d := range documents {
		if d == nil {
			return fmt.Errorf("document %d is nil", i)
		}
		if d.ID == "" {
			return fmt.Errorf("document %d has an empty id", i)
		}
		if _, ok := seen[d.ID]; ok && unique {
			return fmt.Errorf("%w: %s appears twice in the batch", ErrDuplicateID, d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Embedding == nil {
			missing = append(missing, d)
		}
	}

	if len(missing) > 0 {
		if embedder == nil {
			return fmt.Errorf("%d documents have no embedding and the collection has no embedder", len(missing))
		}

		embeddings, err := provider.EmbedChecked(ctx, embedder, model.DocumentContents(missing)...)
		if err != nil {
			return err
		}
		for i, d := range missing {
			d.Embedding = embeddings[i]
		}
	}

	return CheckDimensions(documents)
}

// CheckDimensions verifies all documents carry embeddings of the same size.
func CheckDimensions(documents []*model.Document) error {
	if len(documents) == 0 {
		return nil
	}
	dim := len(documents[0].Embedding)
	for _, d := range documents {
		if len(d.Embedding) != dim {
			return fmt.Errorf("%w: %d and %d in one batch", ErrDimensionMismatch, dim, len(d.Embedding))
		}
	}
	return nil
}

// LastWins keeps the last document for every id, in order of first appearance.
func LastWins(documents []*model.Document) []*model.Document {
	index := make(map[string]int, len(documents))
	result := make([]*model.Document, 0, len(documents))
	for _, d := range documents {
		if i, ok := index[d.ID]; ok {
			result[i] = d
			continue
		}
		index[d.ID] = len(result)
		result = append(result, d)
	}
	return result
}

// EmbedQueries embeds the query texts with the collection embedder.
func EmbedQueries(ctx context.Context, embedder provider.Embedder, queryTexts []string) ([][]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("collection has no embedder for query texts")
	}
	return provider.EmbedChecked(ctx, embedder, queryTexts...)
}

// SortByID sorts documents by id in place.
func SortByID(documents []*model.Document) {
	sort.Slice(documents, func(i, j int) bool { return documents[i].ID < documents[j].ID })
}
