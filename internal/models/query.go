package models

import "fmt"

const (
	DefaultTopK = 10
	MaxTopK     = 1000
)

// SearchRequest searches a collection by vector, or by Content embedded with Technique.
type SearchRequest struct {
	Vector    []float32 `json:"vector,omitempty"`
	Content   string    `json:"content,omitempty"`
	Technique string    `json:"technique,omitempty"`
	TopK      int       `json:"top_k,omitempty"`
}

// Validate checks that exactly one of Vector and Content is set and normalizes TopK.
func (q *SearchRequest) Validate() error {
	if len(q.Vector) == 0 && q.Content == "" {
		return fmt.Errorf("either vector or content is required")
	}
	if len(q.Vector) > 0 && q.Content != "" {
		return fmt.Errorf("vector and content are mutually exclusive")
	}
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	return nil
}
