package pipeline

import (
	"github.com/siherrmann/ragengine/model"
)

// IndexChunks assigns every chunk its content id and drops repeated texts.
// The result keeps the order of first occurrence.
func IndexChunks(chunks []string) []*model.Chunk {
	seen := make(map[string]struct{}, len(chunks))
	indexed := make([]*model.Chunk, 0, len(chunks))
	for _, content := range chunks {
		chunk := model.NewChunk(content)
		if _, ok := seen[chunk.ID]; ok {
			continue
		}
		seen[chunk.ID] = struct{}{}
		indexed = append(indexed, chunk)
	}
	return indexed
}
