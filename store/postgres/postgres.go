// Package postgres stores collections in PostgreSQL with pgvector.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/siherrmann/ragengine/database"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
	"github.com/siherrmann/ragengine/store"
)

var (
	_ store.Client     = (*Client)(nil)
	_ store.Collection = (*Collection)(nil)
)

// Client is a PostgreSQL backed collection client.
type Client struct {
	db          *helper.Database
	collections *database.CollectionsDBHandler
	documents   *database.DocumentsDBHandler
	closeOnce   sync.Once
}

// NewClient loads the SQL functions and tables into db.
// The documents table is created with a vector column of embeddingDim.
func NewClient(db *helper.Database, embeddingDim int) (*Client, error) {
	collections, err := database.NewCollectionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("collections handler", err)
	}

	documents, err := database.NewDocumentsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("documents handler", err)
	}

	return &Client{
		db:          db,
		collections: collections,
		documents:   documents,
	}, nil
}

// Documents exposes the documents handler, e.g. to change the vector index.
func (c *Client) Documents() *database.DocumentsDBHandler {
	return c.documents
}

func (c *Client) GetOrCreateCollection(ctx context.Context, name string, embedder provider.Embedder) (store.Collection, error) {
	if name == "" {
		return nil, helper.NewError("get or create collection", fmt.Errorf("collection name is empty"))
	}

	record, err := c.collections.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, helper.NewError("get or create collection", err)
	}

	return &Collection{
		client:   c,
		record:   record,
		embedder: embedder,
	}, nil
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	deleted, err := c.collections.DeleteCollection(ctx, name)
	if err != nil {
		return helper.NewError("delete collection", err)
	}
	if deleted == 0 {
		return helper.NewError("delete collection", fmt.Errorf("collection %s does not exist", name))
	}
	return nil
}

func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := c.collections.SelectAllCollections(ctx)
	if err != nil {
		return nil, helper.NewError("list collections", err)
	}

	names := make([]string, 0, len(collections))
	for _, collection := range collections {
		names = append(names, collection.Name)
	}
	return names, nil
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.db.Close()
	})
	return err
}

// Collection is a collection stored in the documents table.
type Collection struct {
	client   *Client
	record   *model.Collection
	embedder provider.Embedder
}

func (c *Collection) Name() string {
	return c.record.Name
}

// Record returns the persisted collection record.
func (c *Collection) Record() *model.Collection {
	return c.record
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

	err := store.PrepareDocuments(ctx, c.embedder, documents, !upsert)
	if err != nil {
		return helper.NewError("prepare documents", err)
	}

	dim := c.client.documents.EmbeddingDim()
	if len(documents[0].Embedding) != dim {
		return helper.NewError("write documents", fmt.Errorf("%w: collection has %d, got %d", store.ErrDimensionMismatch, dim, len(documents[0].Embedding)))
	}

	err = c.client.documents.InsertDocuments(ctx, c.record.ID, store.LastWins(documents), upsert)
	if errors.Is(err, database.ErrUniqueViolation) {
		return helper.NewError("add documents", fmt.Errorf("%w: %v", store.ErrDuplicateID, err))
	}
	if err != nil {
		return helper.NewError("write documents", err)
	}

	c.client.db.Logger.Debug("Wrote documents", slog.String("collection", c.record.Name), slog.Int("count", len(documents)), slog.Bool("upsert", upsert))

	return nil
}

func (c *Collection) Get(ctx context.Context) (*model.GetResult, error) {
	documents, err := c.client.documents.SelectDocuments(ctx, c.record.ID)
	if err != nil {
		return nil, helper.NewError("get documents", err)
	}
	return model.NewGetResult(documents), nil
}

func (c *Collection) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := c.client.documents.DeleteDocuments(ctx, c.record.ID, ids)
	if err != nil {
		return helper.NewError("delete documents", err)
	}
	return nil
}

func (c *Collection) Query(ctx context.Context, queryTexts []string, nResults int) ([]*model.QueryResult, error) {
	if nResults <= 0 {
		return nil, helper.NewError("query", fmt.Errorf("n results must be positive, got %d", nResults))
	}

	queryEmbeddings, err := store.EmbedQueries(ctx, c.embedder, queryTexts)
	if err != nil {
		return nil, helper.NewError("embed queries", err)
	}

	results := make([]*model.QueryResult, 0, len(queryEmbeddings))
	for _, embedding := range queryEmbeddings {
		if len(embedding) != c.client.documents.EmbeddingDim() {
			return nil, helper.NewError("query", fmt.Errorf("%w: collection has %d, got %d", store.ErrDimensionMismatch, c.client.documents.EmbeddingDim(), len(embedding)))
		}

		documents, err := c.client.documents.SelectDocumentsByDistance(ctx, c.record.ID, embedding, nResults)
		if err != nil {
			return nil, helper.NewError("query", err)
		}
		results = append(results, model.NewQueryResult(documents))
	}

	return results, nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	count, err := c.client.documents.CountDocuments(ctx, c.record.ID)
	if err != nil {
		return 0, helper.NewError("count", err)
	}
	return count, nil
}
