package model

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Source is raw input text before chunking.
type Source struct {
	Title    string   `json:"title"`
	Path     string   `json:"path,omitempty"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// NewSource creates an untitled source from text.
func NewSource(content string) *Source {
	return &Source{Content: content}
}

// NewSourceFromFile reads a file and creates a Source with the file content.
// PDF files are converted to plain text. The title defaults to the filename without extension.
func NewSourceFromFile(filePath string, metadata Metadata) (*Source, error) {
	var content []byte
	var err error
	if strings.EqualFold(filepath.Ext(filePath), ".pdf") {
		content, err = readPDF(filePath)
	} else {
		content, err = os.ReadFile(filePath)
	}
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	return &Source{
		Title:    title,
		Path:     filePath,
		Content:  string(content),
		Metadata: metadata,
	}, nil
}

// ChunkMetadata returns the metadata attached to every chunk of the source.
// Sources without title, path or metadata produce nil.
func (s *Source) ChunkMetadata() Metadata {
	if s.Title == "" && s.Path == "" && len(s.Metadata) == 0 {
		return nil
	}

	m := Metadata{}
	for k, v := range s.Metadata {
		m[k] = v
	}
	if s.Title != "" {
		m["source"] = s.Title
	}
	if s.Path != "" {
		m["path"] = s.Path
	}
	return m
}

func readPDF(filePath string) ([]byte, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, err := r.GetPlainText()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	_, err = io.Copy(&buf, text)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
