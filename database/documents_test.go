package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/ragengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(t *testing.T, handler *CollectionsDBHandler) *model.Collection {
	collection, err := handler.GetOrCreateCollection(context.Background(), "collection_"+uuid.NewString())
	require.NoError(t, err)
	return collection
}

func testDocuments() []*model.Document {
	return []*model.Document{
		{ID: "a", Content: "first", Embedding: []float32{1, 0, 0}, Metadata: model.Metadata{"source": "a.txt"}},
		{ID: "b", Content: "second", Embedding: []float32{0, 1, 0}},
		{ID: "c", Content: "third", Embedding: []float32{1, 1, 0}},
	}
}

func TestDocumentsNewDocumentsDBHandler(t *testing.T) {
	database := initDB(t)

	_, err := NewCollectionsDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Valid call NewDocumentsDBHandler", func(t *testing.T) {
		documentsDbHandler, err := NewDocumentsDBHandler(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")
		require.NotNil(t, documentsDbHandler, "Expected NewDocumentsDBHandler to return a non-nil instance")
		assert.Equal(t, testEmbeddingDim, documentsDbHandler.EmbeddingDim())
	})

	t.Run("Invalid call NewDocumentsDBHandler with nil database", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating DocumentsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})

	t.Run("Invalid call NewDocumentsDBHandler with zero dimension", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(database, 0, false)
		assert.Error(t, err)
	})
}

func TestDocumentsInsertAndSelect(t *testing.T) {
	collectionsDbHandler, documentsDbHandler := initHandlers(t)
	ctx := context.Background()

	t.Run("Insert documents and select them ordered by id", func(t *testing.T) {
		collection := newTestCollection(t, collectionsDbHandler)

		err := documentsDbHandler.InsertDocuments(ctx, collection.ID, testDocuments(), false)
		require.NoError(t, err, "Expected InsertDocuments to not return an error")

		documents, err := documentsDbHandler.SelectDocuments(ctx, collection.ID)
		require.NoError(t, err)
		require.Len(t, documents, 3)
		assert.Equal(t, []string{"a", "b", "c"}, model.DocumentIDs(documents))
		assert.Equal(t, "a.txt", documents[0].Metadata["source"])
		assert.False(t, documents[0].CreatedAt.IsZero(), "Expected CreatedAt to be set")

		count, err := documentsDbHandler.CountDocuments(ctx, collection.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("Insert of an existing id rolls back the batch", func(t *testing.T) {
		collection := newTestCollection(t, collectionsDbHandler)

		err := documentsDbHandler.InsertDocuments(ctx, collection.ID, testDocuments()[:1], false)
		require.NoError(t, err)

		err = documentsDbHandler.InsertDocuments(ctx, collection.ID, testDocuments()[1:2], false)
		require.NoError(t, err)

		batch := []*model.Document{testDocuments()[2], testDocuments()[0]}
		err = documentsDbHandler.InsertDocuments(ctx, collection.ID, batch, false)
		assert.ErrorIs(t, err, ErrUniqueViolation)

		count, err := documentsDbHandler.CountDocuments(ctx, collection.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count, "Expected the failed batch to be rolled back")
	})

	t.Run("Upsert replaces content and metadata", func(t *testing.T) {
		collection := newTestCollection(t, collectionsDbHandler)

		err := documentsDbHandler.InsertDocuments(ctx, collection.ID, testDocuments(), false)
		require.NoError(t, err)

		replacement := &model.Document{ID: "a", Content: "replaced", Embedding: []float32{0, 0, 1}, Metadata: model.Metadata{"source": "new.txt"}}
		err = documentsDbHandler.InsertDocuments(ctx, collection.ID, []*model.Document{replacement}, true)
		require.NoError(t, err)

		documents, err := documentsDbHandler.SelectDocuments(ctx, collection.ID)
		require.NoError(t, err)
		require.Len(t, documents, 3)
		assert.Equal(t, "replaced", documents[0].Content)
		assert.Equal(t, "new.txt", documents[0].Metadata["source"])
	})

	t.Run("Documents are scoped to their collection", func(t *testing.T) {
		first := newTestCollection(t, collectionsDbHandler)
		second := newTestCollection(t, collectionsDbHandler)

		err := documentsDbHandler.InsertDocuments(ctx, first.ID, testDocuments(), false)
		require.NoError(t, err)
		err = documentsDbHandler.InsertDocuments(ctx, second.ID, testDocuments(), false)
		require.NoError(t, err, "Expected the same ids to be allowed in another collection")

		_, err = collectionsDbHandler.DeleteCollection(ctx, first.Name)
		require.NoError(t, err)

		count, err := documentsDbHandler.CountDocuments(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "Expected documents to be deleted with their collection")

		count, err = documentsDbHandler.CountDocuments(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestDocumentsSelectByDistance(t *testing.T) {
	collectionsDbHandler, documentsDbHandler := initHandlers(t)
	ctx := context.Background()

	collection := newTestCollection(t, collectionsDbHandler)
	err := documentsDbHandler.InsertDocuments(ctx, collection.ID, testDocuments(), false)
	require.NoError(t, err)

	t.Run("Select by distance orders by cosine distance", func(t *testing.T) {
		documents, err := documentsDbHandler.SelectDocumentsByDistance(ctx, collection.ID, []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, documents, 3)

		assert.Equal(t, []string{"a", "c", "b"}, model.DocumentIDs(documents))
		assert.InDelta(t, 0.0, documents[0].Distance, 1e-6)
		assert.InDelta(t, 0.29289, documents[1].Distance, 1e-4)
		assert.InDelta(t, 1.0, documents[2].Distance, 1e-6)
	})

	t.Run("Select by distance respects the limit", func(t *testing.T) {
		documents, err := documentsDbHandler.SelectDocumentsByDistance(ctx, collection.ID, []float32{0, 1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, documents, 1)
		assert.Equal(t, "b", documents[0].ID)
	})
}

func TestDocumentsDelete(t *testing.T) {
	collectionsDbHandler, documentsDbHandler := initHandlers(t)
	ctx := context.Background()

	collection := newTestCollection(t, collectionsDbHandler)
	err := documentsDbHandler.InsertDocuments(ctx, collection.ID, testDocuments(), false)
	require.NoError(t, err)

	t.Run("Delete documents ignores unknown ids", func(t *testing.T) {
		deleted, err := documentsDbHandler.DeleteDocuments(ctx, collection.ID, []string{"a", "unknown"})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		count, err := documentsDbHandler.CountDocuments(ctx, collection.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
