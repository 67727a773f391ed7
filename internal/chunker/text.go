package chunker

import (
	"errors"
	"strings"
)

// ErrInvalidMaxLength is returned by TextChunker when MaxLength is not positive.
var ErrInvalidMaxLength = errors.New("max length must be positive")

// TextChunker splits text into sentences on '.', '!' and '?' and greedily
// merges consecutive sentences, joined by a space, while the merged length in
// bytes stays below MaxLength. A sentence longer than the budget becomes its
// own chunk. No chunk is empty.
type TextChunker struct {
	MaxLength int
}

var _ Chunker[string, string] = TextChunker{}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Chunk implements Chunker.
func (c TextChunker) Chunk(text string) ([]string, error) {
	if c.MaxLength <= 0 {
		return nil, ErrInvalidMaxLength
	}
	var chunks []string
	var current strings.Builder
	for _, part := range strings.FieldsFunc(text, isSentenceEnd) {
		sentence := strings.TrimSpace(part)
		if sentence == "" {
			continue
		}
		switch {
		case current.Len() == 0:
			current.WriteString(sentence)
		case current.Len()+1+len(sentence) < c.MaxLength:
			current.WriteByte(' ')
			current.WriteString(sentence)
		default:
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(sentence)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks, nil
}
