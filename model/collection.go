package model

import (
	"time"

	"github.com/google/uuid"
)

// MetricCosine is the only distance metric collections use.
const MetricCosine = "cosine"

// Collection is a named namespace of documents.
type Collection struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Name      string    `json:"name"`
	Metric    string    `json:"metric"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
