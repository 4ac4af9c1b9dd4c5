// Package memory keeps collections in process memory. Nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
	"github.com/siherrmann/ragengine/store"
)

var (
	_ store.Client     = (*Client)(nil)
	_ store.Collection = (*Collection)(nil)
)

// Client holds collections by name.
type Client struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewClient creates an empty in-memory client.
func NewClient() *Client {
	return &Client{
		collections: map[string]*Collection{},
	}
}

func (c *Client) GetOrCreateCollection(ctx context.Context, name string, embedder provider.Embedder) (store.Collection, error) {
	if name == "" {
		return nil, helper.NewError("get or create collection", fmt.Errorf("collection name is empty"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	collection, ok := c.collections[name]
	if !ok {
		collection = &Collection{
			name:      name,
			documents: map[string]*model.Document{},
		}
		c.collections[name] = collection
	}
	// The latest embedder is bound, like reopening a persistent collection.
	collection.mu.Lock()
	collection.embedder = embedder
	collection.mu.Unlock()

	return collection, nil
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.collections[name]; !ok {
		return helper.NewError("delete collection", fmt.Errorf("collection %s does not exist", name))
	}
	delete(c.collections, name)
	return nil
}

func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.collections))
	for name := range c.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Client) Close() error {
	return nil
}

// Collection is an in-memory collection with brute-force cosine search.
type Collection struct {
	name      string
	embedder  provider.Embedder
	mu        sync.RWMutex
	documents map[string]*model.Document
	dimension int
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Add(ctx context.Context, documents []*model.Document) error {
	return c.write(ctx, documents, false)
}

func (c *Collection) Upsert(ctx context.Context, documents []*model.Document) error {
	return c.write(ctx, documents, true)
}

func (c *Collection) write(ctx context.Context, documents []*model.Document, upsert bool) error {
	if len(documents) == 0 {
		return nil
	}

	err := store.PrepareDocuments(ctx, c.boundEmbedder(), documents, !upsert)
	if err != nil {
		return helper.NewError("prepare documents", err)
	}
	documents = store.LastWins(documents)

	c.mu.Lock()
	defer c.mu.Unlock()

	dim := len(documents[0].Embedding)
	if c.dimension != 0 && len(c.documents) > 0 && c.dimension != dim {
		return helper.NewError("write documents", fmt.Errorf("%w: collection has %d, got %d", store.ErrDimensionMismatch, c.dimension, dim))
	}

	if !upsert {
		for _, d := range documents {
			if _, ok := c.documents[d.ID]; ok {
				return helper.NewError("add documents", fmt.Errorf("%w: %s", store.ErrDuplicateID, d.ID))
			}
		}
	}

	now := time.Now()
	for _, d := range documents {
		stored := *d
		stored.Embedding = append([]float32(nil), d.Embedding...)
		stored.UpdatedAt = now
		if existing, ok := c.documents[d.ID]; ok {
			stored.CreatedAt = existing.CreatedAt
		} else {
			stored.CreatedAt = now
		}
		c.documents[d.ID] = &stored
	}
	c.dimension = dim

	return nil
}

func (c *Collection) Get(ctx context.Context) (*model.GetResult, error) {
	return model.NewGetResult(c.snapshot()), nil
}

func (c *Collection) Delete(ctx context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.documents, id)
	}
	return nil
}

func (c *Collection) Query(ctx context.Context, queryTexts []string, nResults int) ([]*model.QueryResult, error) {
	if nResults <= 0 {
		return nil, helper.NewError("query", fmt.Errorf("n results must be positive, got %d", nResults))
	}

	queryEmbeddings, err := store.EmbedQueries(ctx, c.boundEmbedder(), queryTexts)
	if err != nil {
		return nil, helper.NewError("embed queries", err)
	}

	results, err := store.BruteForceQuery(queryEmbeddings, c.snapshot(), nResults)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return results, nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.documents), nil
}

func (c *Collection) boundEmbedder() provider.Embedder {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.embedder
}

// snapshot returns the documents ordered by id.
func (c *Collection) snapshot() []*model.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	documents := make([]*model.Document, 0, len(c.documents))
	for _, d := range c.documents {
		documents = append(documents, d)
	}
	store.SortByID(documents)
	return documents
}
