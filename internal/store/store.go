// Package store keeps named vector collections in memory and embeds content into them.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/viie/internal/embedding"
	"github.com/hyperjump/viie/internal/vector"
)

// Store is a set of named collections. The store lock guards only the name
// to collection map; each collection has its own lock, so operations on
// different collections do not contend.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*vector.Collection[float32]

	engine     *embedding.Engine
	ownsEngine bool
	embedCfg   embedding.Config
	logger     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithEmbeddingConfig sets the defaults used when embedding content. Method is
// used when a request names no technique; Dim is always the collection's.
func WithEmbeddingConfig(cfg embedding.Config) Option {
	return func(s *Store) { s.embedCfg = cfg }
}

// WithEngine shares an existing engine. The caller keeps ownership and closes it.
func WithEngine(e *embedding.Engine) Option {
	return func(s *Store) {
		if e != nil {
			s.engine = e
			s.ownsEngine = false
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// BatchItem is one (id, content) pair for EmbedBatch.
type BatchItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*vector.Collection[float32]),
		embedCfg:    embedding.DefaultConfig(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = embedding.NewEngine(embedding.WithLogger(s.logger))
		s.ownsEngine = true
	}
	return s
}

// CreateCollection adds an empty collection of the given dimension.
func (s *Store) CreateCollection(name string, dim int) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("collection name must not be empty")
	}
	c, err := vector.NewCollection[float32](dim)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}
	s.collections[name] = c
	s.logger.Debug("Collection created", zap.String("collection", name), zap.Int("dim", dim))
	return nil
}

// DeleteCollection removes a collection and every vector in it.
func (s *Store) DeleteCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	s.logger.Debug("Collection deleted", zap.String("collection", name))
	return nil
}

// ListCollections returns the collection names in ascending order.
func (s *Store) ListCollections() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names
}

func (s *Store) collection(name string) (*vector.Collection[float32], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c, nil
}

// Dimension returns the dimension of a collection.
func (s *Store) Dimension(name string) (int, error) {
	c, err := s.collection(name)
	if err != nil {
		return 0, err
	}
	return c.Dim(), nil
}

// Len returns the number of vectors in a collection.
func (s *Store) Len(name string) (int, error) {
	c, err := s.collection(name)
	if err != nil {
		return 0, err
	}
	return c.Len(), nil
}

// IDs returns the ids stored in a collection in ascending order.
func (s *Store) IDs(name string) ([]string, error) {
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	return c.IDs(), nil
}

// Insert stores v under id, overwriting any existing vector.
func (s *Store) Insert(collection, id string, v vector.Vector[float32]) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	return c.Insert(id, v)
}

// Update replaces the vector under an existing id.
func (s *Store) Update(collection, id string, v vector.Vector[float32]) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	return c.Update(id, v)
}

// Delete removes id from a collection. Removing an absent id succeeds.
func (s *Store) Delete(collection, id string) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	c.Delete(id)
	return nil
}

// Get returns the vector stored under id.
func (s *Store) Get(collection, id string) (vector.Vector[float32], error) {
	c, err := s.collection(collection)
	if err != nil {
		return vector.Vector[float32]{}, err
	}
	v, ok := c.Get(id)
	if !ok {
		return vector.Vector[float32]{}, fmt.Errorf("%w: %s", vector.ErrVectorIDNotFound, id)
	}
	return v, nil
}

// Search returns the topK vectors most similar to query.
func (s *Store) Search(collection string, query vector.Vector[float32], topK int) ([]vector.Result, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	return c.Search(query, topK)
}

// resolveMethod maps technique to a method. An empty technique selects the
// configured default; an unknown one falls back to embedding.FallbackMethod
// and is logged.
func (s *Store) resolveMethod(technique string) embedding.Method {
	if strings.TrimSpace(technique) == "" {
		return s.embedCfg.Method
	}
	m, ok := s.engine.ResolveMethod(technique)
	if !ok {
		s.logger.Warn("unknown embedding technique, falling back",
			zap.String("technique", technique),
			zap.String("fallback", m.String()))
	}
	return m
}

// Embed generates a vector for content sized to the collection's dimension
// without storing it.
func (s *Store) Embed(ctx context.Context, collection, content, technique string) (vector.Vector[float32], error) {
	return s.embed(ctx, collection, "", content, technique)
}

func (s *Store) embed(ctx context.Context, collection, id, content, technique string) (vector.Vector[float32], error) {
	dim, err := s.Dimension(collection)
	if err != nil {
		return vector.Vector[float32]{}, err
	}
	method := s.resolveMethod(technique)
	values, err := s.engine.Generate(ctx, content, s.embedCfg.With(method, dim))
	if err != nil {
		return vector.Vector[float32]{}, &EmbeddingError{Collection: collection, ID: id, Method: method, Err: err}
	}
	return vector.New(values), nil
}

// EmbedAndInsert embeds content with technique and stores it under id.
// No store lock is held while the embedding is generated.
func (s *Store) EmbedAndInsert(ctx context.Context, collection, id, content, technique string) error {
	v, err := s.embed(ctx, collection, id, content, technique)
	if err != nil {
		return err
	}
	return s.Insert(collection, id, v)
}

// EmbedBatch embeds and inserts items in order and stops at the first failure.
// It is not atomic: items before the failing one stay inserted. The returned
// count is the number of items inserted.
func (s *Store) EmbedBatch(ctx context.Context, collection string, items []BatchItem, technique string) (int, error) {
	for i, item := range items {
		if err := s.EmbedAndInsert(ctx, collection, item.ID, item.Content, technique); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

// SearchText embeds content and searches the collection with the result.
func (s *Store) SearchText(ctx context.Context, collection, content, technique string, topK int) ([]vector.Result, error) {
	q, err := s.Embed(ctx, collection, content, technique)
	if err != nil {
		return nil, err
	}
	return s.Search(collection, q, topK)
}

// Generate embeds content at dim without storing it. With fallback, a failing
// technique yields a random vector instead of an error.
func (s *Store) Generate(ctx context.Context, content, technique string, dim int, fallback bool) (embedding.Method, []float32, error) {
	method := s.resolveMethod(technique)
	var opts []embedding.EmbedderOption
	if fallback {
		opts = append(opts, embedding.WithRandomFallback())
	}
	emb := embedding.NewEmbedder(s.engine, s.embedCfg.With(method, dim), opts...)
	values, err := emb.Embed(ctx, content)
	if err != nil {
		return method, nil, &EmbeddingError{Method: method, Err: err}
	}
	return method, values, nil
}

// Embedder returns an embedder sized to the collection's dimension for technique.
func (s *Store) Embedder(collection, technique string) (embedding.Embedder, error) {
	dim, err := s.Dimension(collection)
	if err != nil {
		return nil, err
	}
	return embedding.NewEmbedder(s.engine, s.embedCfg.With(s.resolveMethod(technique), dim)), nil
}

// DefaultMethod is the method used when a request names no technique.
func (s *Store) DefaultMethod() embedding.Method {
	return s.embedCfg.Method
}

// Close releases the embedding engine if the store created it.
func (s *Store) Close() error {
	if s.ownsEngine {
		return s.engine.Close()
	}
	return nil
}
