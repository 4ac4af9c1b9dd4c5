package store

import (
	"fmt"
	"math"
	"sort"

	"github.com/siherrmann/ragengine/model"
)

// CosineDistance returns 1 - cos(a, b). Zero vectors have distance 1.
func CosineDistance(a []float32, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d and %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}

// Nearest returns copies of the n documents closest to query, ordered by
// ascending distance and by id for equal distances.
func Nearest(query []float32, documents []*model.Document, n int) ([]*model.Document, error) {
	scored := make([]*model.Document, 0, len(documents))
	for _, d := range documents {
		distance, err := CosineDistance(query, d.Embedding)
		if err != nil {
			return nil, err
		}
		c := *d
		c.Distance = distance
		scored = append(scored, &c)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].ID < scored[j].ID
	})

	if n < len(scored) {
		scored = scored[:n]
	}
	return scored, nil
}

// BruteForceQuery ranks all documents for every query embedding.
func BruteForceQuery(queryEmbeddings [][]float32, documents []*model.Document, nResults int) ([]*model.QueryResult, error) {
	results := make([]*model.QueryResult, 0, len(queryEmbeddings))
	for _, q := range queryEmbeddings {
		nearest, err := Nearest(q, documents, nResults)
		if err != nil {
			return nil, err
		}
		results = append(results, model.NewQueryResult(nearest))
	}
	return results, nil
}
