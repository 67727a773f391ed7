package store

import (
	"errors"
	"fmt"

	"github.com/hyperjump/viie/internal/embedding"
)

var (
	// ErrCollectionExists is returned when creating a collection whose name is taken.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrCollectionNotFound is returned for operations on an unknown collection.
	ErrCollectionNotFound = errors.New("collection not found")
)

// EmbeddingError wraps a failure to embed content for a collection.
type EmbeddingError struct {
	Collection string
	ID         string
	Method     embedding.Method
	Err        error
}

func (e *EmbeddingError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("embedding error (%s): %v", e.Method, e.Err)
	}
	if e.ID == "" {
		return fmt.Sprintf("embedding error in %s (%s): %v", e.Collection, e.Method, e.Err)
	}
	return fmt.Sprintf("embedding error for %s/%s (%s): %v", e.Collection, e.ID, e.Method, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
