package model

import (
	"time"
)

// Document is an indexed chunk as stored in a collection.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Results
	Distance float64 `json:"distance,omitempty"`
}

// DocumentIDs returns the ids of the documents in order.
func DocumentIDs(documents []*Document) []string {
	ids := make([]string, 0, len(documents))
	for _, d := range documents {
		ids = append(ids, d.ID)
	}
	return ids
}

// DocumentContents returns the contents of the documents in order.
func DocumentContents(documents []*Document) []string {
	contents := make([]string, 0, len(documents))
	for _, d := range documents {
		contents = append(contents, d.Content)
	}
	return contents
}
