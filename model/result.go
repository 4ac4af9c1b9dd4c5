package model

// QueryResult holds the nearest documents for one query text.
// All slices are parallel and ordered by ascending distance.
type QueryResult struct {
	IDs       []string   `json:"ids"`
	Documents []string   `json:"documents"`
	Distances []float64  `json:"distances"`
	Metadatas []Metadata `json:"metadatas"`
}

// NewQueryResult builds a result from documents already sorted by distance.
func NewQueryResult(documents []*Document) *QueryResult {
	result := &QueryResult{
		IDs:       make([]string, 0, len(documents)),
		Documents: make([]string, 0, len(documents)),
		Distances: make([]float64, 0, len(documents)),
		Metadatas: make([]Metadata, 0, len(documents)),
	}
	for _, d := range documents {
		result.IDs = append(result.IDs, d.ID)
		result.Documents = append(result.Documents, d.Content)
		result.Distances = append(result.Distances, d.Distance)
		result.Metadatas = append(result.Metadatas, d.Metadata)
	}
	return result
}

// Len returns the number of documents in the result.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}

// GetResult holds all documents of a collection ordered by id.
type GetResult struct {
	IDs       []string   `json:"ids"`
	Documents []string   `json:"documents"`
	Metadatas []Metadata `json:"metadatas"`
}

// NewGetResult builds a result from documents already sorted by id.
func NewGetResult(documents []*Document) *GetResult {
	result := &GetResult{
		IDs:       make([]string, 0, len(documents)),
		Documents: make([]string, 0, len(documents)),
		Metadatas: make([]Metadata, 0, len(documents)),
	}
	for _, d := range documents {
		result.IDs = append(result.IDs, d.ID)
		result.Documents = append(result.Documents, d.Content)
		result.Metadatas = append(result.Metadatas, d.Metadata)
	}
	return result
}
