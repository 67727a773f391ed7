package vector

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Result is a single search hit.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Collection is an in-memory vector index using exact (brute-force) cosine search.
// Every stored vector has the collection's dimension. Writers take the lock
// exclusively; Search and Get share it.
type Collection[T Numeric] struct {
	dimensions int
	vectors    map[string]Vector[T]
	mu         sync.RWMutex
}

// NewCollection creates an empty collection with the given dimension.
func NewCollection[T Numeric](dimensions int) (*Collection[T], error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &Collection[T]{
		dimensions: dimensions,
		vectors:    make(map[string]Vector[T]),
	}, nil
}

// Dim returns the collection dimension.
func (c *Collection[T]) Dim() int {
	return c.dimensions
}

// Insert stores v under id, replacing any previous vector with that id.
func (c *Collection[T]) Insert(id string, v Vector[T]) error {
	if v.Dim() != c.dimensions {
		return &DimensionMismatchError{Expected: c.dimensions, Actual: v.Dim()}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[id] = v
	return nil
}

// Update replaces the vector stored under id. The id must already exist.
func (c *Collection[T]) Update(id string, v Vector[T]) error {
	if v.Dim() != c.dimensions {
		return &DimensionMismatchError{Expected: c.dimensions, Actual: v.Dim()}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vectors[id]; !ok {
		return fmt.Errorf("%w: %s", ErrVectorIDNotFound, id)
	}
	c.vectors[id] = v
	return nil
}

// Delete removes id. Deleting an absent id is a no-op.
func (c *Collection[T]) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vectors, id)
}

// Get returns the vector stored under id.
func (c *Collection[T]) Get(id string) (Vector[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[id]
	return v, ok
}

// Len returns the number of stored vectors.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// IsEmpty reports whether the collection holds no vectors.
func (c *Collection[T]) IsEmpty() bool {
	return c.Len() == 0
}

// IDs returns the stored ids in ascending order.
func (c *Collection[T]) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.vectors))
	for id := range c.vectors {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Search scores every stored vector against query and returns at most k results,
// highest score first. Equal scores are ordered by ascending id and NaN scores
// sort last, so the order is total and repeatable.
func (c *Collection[T]) Search(query Vector[T], k int) ([]Result, error) {
	if query.Dim() != c.dimensions {
		return nil, &DimensionMismatchError{Expected: c.dimensions, Actual: query.Dim()}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if k <= 0 || len(c.vectors) == 0 {
		return []Result{}, nil
	}
	scores := make([]Result, 0, len(c.vectors))
	for id, vec := range c.vectors {
		score, err := CosineSimilarity(query, vec)
		if err != nil {
			return nil, err
		}
		scores = append(scores, Result{ID: id, Score: score})
	}
	slices.SortFunc(scores, compareResults)
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// compareResults orders by score descending, then id ascending. cmp.Compare
// treats NaN as smaller than every number, which puts NaN scores at the end.
func compareResults(a, b Result) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
