package pipeline

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	DefaultCapacity = 100
	DefaultOverlap  = 50
)

// Semantic levels from coarsest to finest. A section is only split at a
// finer level when it does not fit into the capacity on its own.
var levels = []*regexp.Regexp{
	regexp.MustCompile(`\n[ \t\r]*\n\s*`),   // paragraphs
	regexp.MustCompile(`\n\s*`),             // lines
	regexp.MustCompile(`[.!?]+["')\]]*\s+`), // sentences
	regexp.MustCompile(`\s+`),               // words
}

type span struct {
	start int
	end   int
}

// TextSplitter splits text into chunks of at most capacity characters with
// consecutive chunks sharing up to overlap characters.
// Characters are counted as Unicode code points of the trimmed chunk.
type TextSplitter struct {
	capacity int
	overlap  int
}

// NewTextSplitter creates a splitter, capacity must be positive and overlap smaller than capacity.
func NewTextSplitter(capacity int, overlap int) (*TextSplitter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if overlap < 0 || overlap >= capacity {
		return nil, fmt.Errorf("overlap must be in [0, capacity), got %d for capacity %d", overlap, capacity)
	}
	return &TextSplitter{
		capacity: capacity,
		overlap:  overlap,
	}, nil
}

// DefaultTextSplitter returns a splitter with capacity 100 and overlap 50.
func DefaultTextSplitter() *TextSplitter {
	return &TextSplitter{
		capacity: DefaultCapacity,
		overlap:  DefaultOverlap,
	}
}

func (s *TextSplitter) Capacity() int { return s.capacity }
func (s *TextSplitter) Overlap() int  { return s.overlap }

// Chunks lazily yields the chunks of all texts in order.
func (s *TextSplitter) Chunks(texts ...string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, text := range texts {
			for chunk := range s.chunkText(text) {
				if !yield(chunk) {
					return
				}
			}
		}
	}
}

// ChunkAll collects the chunks of all texts.
func (s *TextSplitter) ChunkAll(texts ...string) []string {
	return slices.Collect(s.Chunks(texts...))
}

// ChunkFunc returns the splitter as a pipeline chunk function.
func (s *TextSplitter) ChunkFunc() ChunkFunc {
	return func(text string) ([]string, error) {
		return s.ChunkAll(text), nil
	}
}

func (s *TextSplitter) chunkText(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		spans := s.split(text, span{0, len(text)}, 0, nil)

		start := 0
		for start < len(spans) {
			end := s.extend(text, spans, start)

			chunk := strings.TrimSpace(text[spans[start].start:spans[end].end])
			if chunk != "" && !yield(chunk) {
				return
			}

			if end == len(spans)-1 {
				return
			}
			start = s.nextStart(text, spans, start, end)
		}
	}
}

// split breaks the section into spans that each fit into the capacity,
// descending one semantic level at a time.
func (s *TextSplitter) split(text string, section span, level int, spans []span) []span {
	if trimmedLen(text[section.start:section.end]) <= s.capacity {
		return append(spans, section)
	}

	if level >= len(levels) {
		for i := range text[section.start:section.end] {
			start := section.start + i
			_, size := utf8.DecodeRuneInString(text[start:])
			spans = append(spans, span{start, start + size})
		}
		return spans
	}

	sub := text[section.start:section.end]
	prev := 0
	for _, m := range levels[level].FindAllStringIndex(sub, -1) {
		if m[1] <= prev {
			continue
		}
		spans = s.split(text, span{section.start + prev, section.start + m[1]}, level+1, spans)
		prev = m[1]
	}
	if prev < len(sub) {
		spans = s.split(text, span{section.start + prev, section.end}, level+1, spans)
	}
	return spans
}

// extend returns the last span index a chunk starting at start can include.
func (s *TextSplitter) extend(text string, spans []span, start int) int {
	end := start
	for end+1 < len(spans) && trimmedLen(text[spans[start].start:spans[end+1].end]) <= s.capacity {
		end++
	}
	return end
}

// nextStart picks the earliest span inside the previous chunk whose suffix
// fits into the overlap while the following chunk still moves past end.
func (s *TextSplitter) nextStart(text string, spans []span, start int, end int) int {
	if s.overlap > 0 {
		for k := start + 1; k <= end; k++ {
			if trimmedLen(text[spans[k].start:spans[end].end]) > s.overlap {
				continue
			}
			if s.extend(text, spans, k) > end {
				return k
			}
		}
	}
	return end + 1
}

func trimmedLen(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}
