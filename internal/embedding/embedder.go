// Package embedding turns text into fixed-dimension vectors. Engine dispatches
// to the local heuristic generators, an ONNX sentence model, or a remote API.
package embedding

import (
	"context"

	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// EmbedderOption configures an Embedder returned by NewEmbedder.
type EmbedderOption func(*engineEmbedder)

// WithRandomFallback makes the embedder return a Random vector instead of an
// error when the configured method fails.
func WithRandomFallback() EmbedderOption {
	return func(e *engineEmbedder) {
		e.fallback = true
	}
}

// engineEmbedder binds an Engine to one Config.
type engineEmbedder struct {
	engine   *Engine
	cfg      Config
	fallback bool
}

// NewEmbedder returns an Embedder that generates with engine using cfg.
// Closing it does not close the engine.
func NewEmbedder(engine *Engine, cfg Config, opts ...EmbedderOption) Embedder {
	e := &engineEmbedder{engine: engine, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := e.engine.Generate(ctx, text, e.cfg)
	if err == nil || !e.fallback || ctx.Err() != nil {
		return v, err
	}
	e.engine.logger.Debug("Embedding failed, using random vector",
		zap.String("technique", e.cfg.Method.String()),
		zap.Error(err))
	return e.engine.Generate(ctx, text, e.cfg.With(Random, e.cfg.Dim))
}

// EmbedBatch calls Embed for each text.
func (e *engineEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

func (e *engineEmbedder) Dimensions() int {
	return e.cfg.Dim
}

func (e *engineEmbedder) Close() error {
	return nil
}
