// Package chunker splits text, audio, images and video into pieces small
// enough to embed one at a time. Chunkers never touch the store.
package chunker

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Chunker splits one input into ordered chunks.
type Chunker[In, Out any] interface {
	Chunk(in In) ([]Out, error)
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("base64 decode failed: %w", err)
	}
	return data, nil
}
