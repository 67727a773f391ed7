package embedding

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/viie/pkg/utils"
)

// ModelLoader opens the sentence model used by BertEmbedding.
type ModelLoader func(path string, dims, maxTokens int) (Embedder, error)

// Engine dispatches embedding requests to the generator selected by Config.Method.
// It is safe for concurrent use.
type Engine struct {
	rngMu sync.Mutex
	rng   *rand.Rand

	api    *apiClient
	cache  *EmbeddingCache
	logger *zap.Logger

	modelMu   sync.Mutex
	models    map[string]Embedder
	loadModel ModelLoader

	vocabMu sync.Mutex
	vocabs  map[string][]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed makes the Random and AsciiSum generators reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCacheSize caches up to n ExternalAPI and BertEmbedding results. n <= 0 disables the cache.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		if n <= 0 {
			e.cache = nil
			return
		}
		if c, err := NewEmbeddingCache(n); err == nil {
			e.cache = c
		}
	}
}

// WithHTTPClient sets the client used for ExternalAPI requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.api.http = client
		}
	}
}

// WithRateLimit limits ExternalAPI requests to r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(e *Engine) {
		if r > 0 {
			e.api.limiter = rate.NewLimiter(rate.Limit(r), max(burst, 1))
		}
	}
}

// WithModelLoader replaces the ONNX model loader used by BertEmbedding.
func WithModelLoader(loader ModelLoader) Option {
	return func(e *Engine) {
		if loader != nil {
			e.loadModel = loader
		}
	}
}

// NewEngine creates an engine. Without WithSeed the random generators are seeded from the runtime.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		api:       newAPIClient(),
		logger:    zap.NewNop(),
		models:    make(map[string]Embedder),
		loadModel: loadONNXModel,
		vocabs:    make(map[string][]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func loadONNXModel(path string, dims, maxTokens int) (Embedder, error) {
	m, err := NewONNXEmbedder(path, dims, maxTokens)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ResolveMethod maps a technique name to a Method. Unknown names resolve to
// FallbackMethod with ok == false so callers can report the substitution.
func (e *Engine) ResolveMethod(name string) (Method, bool) {
	if m, ok := ParseMethod(name); ok {
		return m, true
	}
	return FallbackMethod, false
}

// Generate embeds text according to cfg. The result always has cfg.Dim elements.
func (e *Engine) Generate(ctx context.Context, text string, cfg Config) ([]float32, error) {
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, cfg.Dim)
	}
	dim := cfg.Dim
	switch cfg.Method {
	case Random:
		return randomEmbedding(dim, e.uniform), nil
	case AsciiSum:
		return asciiSumEmbedding(text, dim, e.uniform), nil
	case BagOfWords:
		vocab, err := e.vocabulary(cfg.VocabPath)
		if err != nil {
			return nil, err
		}
		return bagOfWords(text, vocab, dim), nil
	case TfIdf:
		return tfIdf(text, tfidfCorpus, tfidfVocabulary, dim), nil
	case OneHotEncoding:
		vocab, err := e.vocabulary(cfg.VocabPath)
		if err != nil {
			return nil, err
		}
		return oneHot(text, vocab, dim), nil
	case CharacterLevel:
		return characterLevel(text, dim), nil
	case NGram:
		return ngramEmbedding(text, cfg.ngramSize(), dim), nil
	case HashingTrick:
		return hashingTrick(text, dim), nil
	case WordCount:
		return wordCountStats(text, dim), nil
	case BertEmbedding:
		return e.cached(cfg, text, func() ([]float32, error) { return e.bert(ctx, cfg, text) })
	case ExternalAPI:
		return e.cached(cfg, text, func() ([]float32, error) { return e.api.embed(ctx, cfg, text) })
	default:
		return nil, unsupported(cfg.Method, nil)
	}
}

func (e *Engine) uniform(lo, hi float64) float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return lo + e.rng.Float64()*(hi-lo)
}

func (e *Engine) cached(cfg Config, text string, gen func() ([]float32, error)) ([]float32, error) {
	if e.cache == nil {
		return gen()
	}
	key := cacheKey(cfg, text)
	if v, ok := e.cache.Get(key); ok {
		return v, nil
	}
	v, err := gen()
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, v)
	return v, nil
}

func (e *Engine) bert(ctx context.Context, cfg Config, text string) ([]float32, error) {
	if cfg.ModelPath == "" {
		return nil, unsupported(BertEmbedding, nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	model, err := e.model(cfg)
	if err != nil {
		return nil, unsupported(BertEmbedding, err)
	}
	raw, err := model.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("bert inference failed: %w", err)
	}
	out := make([]float32, cfg.Dim)
	copy(out, raw)
	utils.NormalizeL2(out)
	return out, nil
}

// model returns the sentence model for cfg.ModelPath, loading it on first use.
func (e *Engine) model(cfg Config) (Embedder, error) {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	if m, ok := e.models[cfg.ModelPath]; ok {
		return m, nil
	}
	m, err := e.loadModel(cfg.ModelPath, cfg.modelDim(), cfg.maxTokens())
	if err != nil {
		return nil, err
	}
	e.logger.Info("Loaded sentence model", zap.String("path", cfg.ModelPath), zap.Int("dim", m.Dimensions()))
	e.models[cfg.ModelPath] = m
	return m, nil
}

// vocabulary returns the word list at path, or the built-in list when path is empty.
func (e *Engine) vocabulary(path string) ([]string, error) {
	if path == "" {
		return defaultVocabulary, nil
	}
	e.vocabMu.Lock()
	defer e.vocabMu.Unlock()
	if v, ok := e.vocabs[path]; ok {
		return v, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.ToLower(strings.TrimSpace(scanner.Text())); w != "" {
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	e.vocabs[path] = words
	return words, nil
}

// Close releases every loaded sentence model.
func (e *Engine) Close() error {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	var errs []error
	for path, m := range e.models {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model %s: %w", path, err))
		}
		delete(e.models, path)
	}
	return errors.Join(errs...)
}
