package model

import (
	"github.com/google/uuid"
)

// Chunk is a piece of input text with its content-derived identifier.
type Chunk struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ChunkID returns the name based (version 5, DNS namespace) UUID of the text.
// Identical texts always get identical ids.
func ChunkID(content string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(content)).String()
}

// NewChunk creates a chunk with its id derived from the content.
func NewChunk(content string) *Chunk {
	return &Chunk{
		ID:      ChunkID(content),
		Content: content,
	}
}

// ToDocument converts the chunk into a document for storage.
func (c *Chunk) ToDocument(metadata Metadata) *Document {
	return &Document{
		ID:       c.ID,
		Content:  c.Content,
		Metadata: metadata,
	}
}
