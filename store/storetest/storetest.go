// Package storetest runs the same behaviour tests against every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider/providertest"
	"github.com/siherrmann/ragengine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Facts used as collection content.
var Facts = []string{
	"Mangoes are sweet tropical fruits.",
	"Apples grow in cold climates.",
	"The stock market closed higher today.",
}

// Documents returns the facts as documents without embeddings.
func Documents(contents ...string) []*model.Document {
	documents := make([]*model.Document, 0, len(contents))
	for _, c := range contents {
		documents = append(documents, model.NewChunk(c).ToDocument(nil))
	}
	return documents
}

func collectionName() string {
	return "test_" + uuid.NewString()
}

// RunCollectionTests exercises a store.Client created by newClient.
func RunCollectionTests(t *testing.T, newClient func(t *testing.T) store.Client) {
	ctx := context.Background()

	open := func(t *testing.T) (store.Collection, *providertest.Embedder) {
		client := newClient(t)
		embedder := providertest.NewEmbedder()
		collection, err := client.GetOrCreateCollection(ctx, collectionName(), embedder)
		require.NoError(t, err, "Expected GetOrCreateCollection to not return an error")
		return collection, embedder
	}

	t.Run("Add then get returns documents ordered by id", func(t *testing.T) {
		collection, _ := open(t)

		err := collection.Add(ctx, Documents(Facts...))
		require.NoError(t, err)

		count, err := collection.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		result, err := collection.Get(ctx)
		require.NoError(t, err)
		require.Len(t, result.IDs, 3)
		assert.IsIncreasing(t, result.IDs, "Expected ids in ascending order")
		for i, id := range result.IDs {
			assert.Equal(t, model.ChunkID(result.Documents[i]), id, "Expected id to match its content")
		}
	})

	t.Run("Add with an existing id fails and writes nothing", func(t *testing.T) {
		collection, _ := open(t)

		err := collection.Add(ctx, Documents(Facts[0]))
		require.NoError(t, err)

		err = collection.Add(ctx, Documents(Facts[1], Facts[0]))
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrDuplicateID)

		count, err := collection.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "Expected the failed batch to leave no partial writes")
	})

	t.Run("Add with an id repeated inside the batch fails", func(t *testing.T) {
		collection, _ := open(t)

		err := collection.Add(ctx, Documents(Facts[0], Facts[0]))
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrDuplicateID)
	})

	t.Run("Upsert replaces existing documents", func(t *testing.T) {
		collection, _ := open(t)

		err := collection.Add(ctx, Documents(Facts...))
		require.NoError(t, err)

		replacement := model.NewChunk(Facts[0]).ToDocument(model.Metadata{"source": "mangoes"})
		err = collection.Upsert(ctx, []*model.Document{replacement})
		require.NoError(t, err)

		result, err := collection.Get(ctx)
		require.NoError(t, err)
		require.Len(t, result.IDs, 3, "Expected upsert to not add a second entry")

		for i, id := range result.IDs {
			if id == replacement.ID {
				assert.Equal(t, "mangoes", result.Metadatas[i]["source"], "Expected upsert to replace the metadata")
			}
		}
	})

	t.Run("Upsert of new documents inserts them", func(t *testing.T) {
		collection, _ := open(t)

		err := collection.Upsert(ctx, Documents(Facts...))
		require.NoError(t, err)

		count, err := collection.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("Delete removes documents and ignores unknown ids", func(t *testing.T) {
		collection, _ := open(t)

		documents := Documents(Facts...)
		err := collection.Add(ctx, documents)
		require.NoError(t, err)

		err = collection.Delete(ctx, []string{documents[0].ID, "unknown-id"})
		require.NoError(t, err)

		result, err := collection.Get(ctx)
		require.NoError(t, err)
		assert.Len(t, result.IDs, 2)
		assert.NotContains(t, result.IDs, documents[0].ID)

		err = collection.Delete(ctx, result.IDs)
		require.NoError(t, err)
		count, err := collection.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Query returns nearest documents by ascending distance", func(t *testing.T) {
		collection, embedder := open(t)

		err := collection.Add(ctx, Documents(Facts...))
		require.NoError(t, err)

		results, err := collection.Query(ctx, []string{"Are mangoes sweet?"}, 2)
		require.NoError(t, err)
		require.Len(t, results, 1)

		result := results[0]
		require.Equal(t, 2, result.Len(), "Expected n results to limit the result")
		assert.Equal(t, Facts[0], result.Documents[0], "Expected the mango fact first")
		assert.LessOrEqual(t, result.Distances[0], result.Distances[1], "Expected ascending distances")

		query, err := embedder.Embed(ctx, "Are mangoes sweet?")
		require.NoError(t, err)
		fact, err := embedder.Embed(ctx, Facts[0])
		require.NoError(t, err)
		expected, err := store.CosineDistance(query[0], fact[0])
		require.NoError(t, err)
		assert.InDelta(t, expected, result.Distances[0], 1e-5, "Expected cosine distance")
	})

	t.Run("Query with more results than documents returns all", func(t *testing.T) {
		collection, _ := open(t)

		err := collection.Add(ctx, Documents(Facts...))
		require.NoError(t, err)

		results, err := collection.Query(ctx, []string{"fruit", "market"}, 30)
		require.NoError(t, err)
		require.Len(t, results, 2, "Expected one result per query text")
		assert.Equal(t, 3, results[0].Len())
		assert.Equal(t, 3, results[1].Len())
	})

	t.Run("Query on an empty collection is not an error", func(t *testing.T) {
		collection, _ := open(t)

		results, err := collection.Query(ctx, []string{"anything"}, 30)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 0, results[0].Len())
	})

	t.Run("Query with non-positive n results is an error", func(t *testing.T) {
		collection, _ := open(t)

		_, err := collection.Query(ctx, []string{"anything"}, 0)
		assert.Error(t, err)
	})

	t.Run("Embedder errors are propagated", func(t *testing.T) {
		collection, embedder := open(t)
		sentinel := errors.New("embedding service unavailable")
		embedder.Err = sentinel

		err := collection.Add(ctx, Documents(Facts...))
		assert.ErrorIs(t, err, sentinel)

		_, err = collection.Query(ctx, []string{"anything"}, 1)
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("Precomputed embeddings are stored without calling the embedder", func(t *testing.T) {
		collection, embedder := open(t)

		documents := Documents(Facts[0])
		documents[0].Embedding = make([]float32, embedder.Dimensions)
		documents[0].Embedding[0] = 1
		err := collection.Add(ctx, documents)
		require.NoError(t, err)
		assert.Empty(t, embedder.Calls())
	})

	t.Run("Collections are reopened by name", func(t *testing.T) {
		client := newClient(t)
		name := collectionName()

		first, err := client.GetOrCreateCollection(ctx, name, providertest.NewEmbedder())
		require.NoError(t, err)
		err = first.Add(ctx, Documents(Facts...))
		require.NoError(t, err)

		second, err := client.GetOrCreateCollection(ctx, name, providertest.NewEmbedder())
		require.NoError(t, err)
		assert.Equal(t, name, second.Name())
		count, err := second.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		names, err := client.ListCollections(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, name)

		err = client.DeleteCollection(ctx, name)
		require.NoError(t, err)
		names, err = client.ListCollections(ctx)
		require.NoError(t, err)
		assert.NotContains(t, names, name)
	})
}
