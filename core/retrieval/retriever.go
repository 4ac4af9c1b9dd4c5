package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/store"
)

// Retriever finds the documents of a collection relevant to a query
type Retriever struct {
	collection store.Collection
	log        *slog.Logger
}

// NewRetriever creates a new retriever over the collection
func NewRetriever(collection store.Collection, logger *slog.Logger) (*Retriever, error) {
	if collection == nil {
		return nil, helper.NewError("retriever validation", fmt.Errorf("collection is nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Retriever{
		collection: collection,
		log:        logger,
	}, nil
}

// QueryData returns the nResults nearest documents to query, unfiltered.
// nResults of 0 uses the default of 30.
func (r *Retriever) QueryData(ctx context.Context, query string, nResults int) (*model.QueryResult, error) {
	if nResults < 0 {
		return nil, helper.NewError("query validation", fmt.Errorf("n results must not be negative, got %d", nResults))
	}
	if nResults == 0 {
		nResults = model.DefaultNResults
	}

	results, err := r.collection.Query(ctx, []string{query}, nResults)
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, helper.NewError("query", fmt.Errorf("expected one result, got %d", len(results)))
	}

	r.log.Debug("Queried collection", slog.String("collection", r.collection.Name()), slog.Int("results", results[0].Len()))

	return results[0], nil
}

// Retrieve returns the contents of the nearest documents closer than the
// configured max distance, nearest first. A nil config uses the defaults.
func (r *Retriever) Retrieve(ctx context.Context, query string, config *model.AskConfig) ([]string, error) {
	if config == nil {
		defaults := model.DefaultAskConfig()
		config = &defaults
	}

	result, err := r.QueryData(ctx, query, config.NResults)
	if err != nil {
		return nil, err
	}

	relevant := FilterByDistance(result, config.MaxDistance)

	r.log.Debug("Retrieved documents", slog.Int("candidates", result.Len()), slog.Int("relevant", len(relevant)), slog.Float64("max_distance", config.MaxDistance))

	return relevant, nil
}

// FilterResult keeps the entries with a distance strictly below maxDistance.
// Order is preserved.
func FilterResult(result *model.QueryResult, maxDistance float64) *model.QueryResult {
	filtered := &model.QueryResult{
		IDs:       []string{},
		Documents: []string{},
		Distances: []float64{},
		Metadatas: []model.Metadata{},
	}
	if result == nil {
		return filtered
	}

	for i, distance := range result.Distances {
		if distance >= maxDistance {
			continue
		}
		filtered.IDs = append(filtered.IDs, result.IDs[i])
		filtered.Documents = append(filtered.Documents, result.Documents[i])
		filtered.Distances = append(filtered.Distances, distance)
		if i < len(result.Metadatas) {
			filtered.Metadatas = append(filtered.Metadatas, result.Metadatas[i])
		}
	}
	return filtered
}

// FilterByDistance returns the documents with a distance strictly below maxDistance.
func FilterByDistance(result *model.QueryResult, maxDistance float64) []string {
	return FilterResult(result, maxDistance).Documents
}
