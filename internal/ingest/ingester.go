// Package ingest extracts text from files, chunks it and embeds the chunks
// into a store collection. A Watcher keeps a collection in sync with
// directories on disk.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/viie/internal/chunker"
	"github.com/hyperjump/viie/internal/extract"
	"github.com/hyperjump/viie/internal/store"
	"github.com/hyperjump/viie/internal/vector"
)

const DefaultChunkSize = 512

// fileState records what was ingested for a file so unchanged files are skipped
// and stale chunks can be removed.
type fileState struct {
	chunks  int
	modTime time.Time
	size    int64
}

// Ingester embeds files into one collection of a store.
type Ingester struct {
	store      *store.Store
	collection string
	technique  string
	extensions []string
	chunker    chunker.TextChunker
	extractor  *extract.Extractor
	logger     *zap.Logger

	mu    sync.Mutex
	files map[string]fileState
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithTechnique sets the embedding technique. Empty uses the store default.
func WithTechnique(technique string) Option {
	return func(in *Ingester) { in.technique = technique }
}

// WithExtensions restricts ingestion to the given extensions. Empty allows
// every extension the extractor supports.
func WithExtensions(exts []string) Option {
	return func(in *Ingester) { in.extensions = exts }
}

// WithChunkSize sets the maximum chunk length in bytes.
func WithChunkSize(n int) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.chunker.MaxLength = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// New creates an ingester for an existing collection.
func New(st *store.Store, collection string, opts ...Option) (*Ingester, error) {
	if _, err := st.Dimension(collection); err != nil {
		return nil, err
	}
	in := &Ingester{
		store:      st,
		collection: collection,
		chunker:    chunker.TextChunker{MaxLength: DefaultChunkSize},
		extractor:  extract.NewExtractor(),
		logger:     zap.NewNop(),
		files:      make(map[string]fileState),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Collection returns the target collection name.
func (in *Ingester) Collection() string {
	return in.collection
}

// Allowed reports whether path has an extension the ingester accepts.
func (in *Ingester) Allowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !extract.Supported(ext) {
		return false
	}
	if len(in.extensions) == 0 {
		return true
	}
	return slices.ContainsFunc(in.extensions, func(e string) bool {
		return strings.ToLower("."+strings.TrimPrefix(e, ".")) == ext
	})
}

// IngestFile embeds the chunks of a file under ids derived from its path and
// returns the number of chunks stored. A file unchanged since its last
// ingestion is skipped and reports its previous chunk count. Chunks left over
// from a longer earlier version are deleted.
func (in *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	if !in.Allowed(abs) {
		return 0, fmt.Errorf("extension %q not allowed", filepath.Ext(abs))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", abs)
	}

	in.mu.Lock()
	prev, seen := in.files[abs]
	in.mu.Unlock()
	if seen && prev.modTime.Equal(info.ModTime()) && prev.size == info.Size() {
		in.logger.Debug("Skipping unchanged file", zap.String("path", abs))
		return prev.chunks, nil
	}

	text, err := in.extractor.Extract(abs)
	if err != nil {
		return 0, fmt.Errorf("extract content: %w", err)
	}
	chunks, err := in.chunker.Chunk(text)
	if err != nil {
		return 0, err
	}
	emb, err := in.store.Embedder(in.collection, in.technique)
	if err != nil {
		return 0, err
	}
	vecs, err := emb.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	id := FileID(abs)
	for i, v := range vecs {
		if err := in.store.Insert(in.collection, ChunkID(id, i), vector.New(v)); err != nil {
			return i, err
		}
	}
	for i := len(vecs); seen && i < prev.chunks; i++ {
		_ = in.store.Delete(in.collection, ChunkID(id, i))
	}

	in.mu.Lock()
	in.files[abs] = fileState{chunks: len(vecs), modTime: info.ModTime(), size: info.Size()}
	in.mu.Unlock()
	in.logger.Debug("File ingested",
		zap.String("path", abs),
		zap.String("collection", in.collection),
		zap.Int("chunks", len(vecs)))
	return len(vecs), nil
}

// IngestDirectory walks dir recursively and ingests every allowed regular
// file. A failing file is logged and skipped; the failures are returned
// joined together with the number of files ingested.
func (in *Ingester) IngestDirectory(ctx context.Context, dir string) (int, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", abs)
	}
	var n int
	var errs []error
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !in.Allowed(path) {
			return nil
		}
		// follow symlinks but only to regular files
		if fi, statErr := os.Stat(path); statErr != nil || !fi.Mode().IsRegular() {
			return nil
		}
		if _, err := in.IngestFile(ctx, path); err != nil {
			in.logger.Warn("Failed to ingest file", zap.String("path", path), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		n++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return n, errors.Join(errs...)
}

// RemoveFile deletes every chunk recorded for path and returns how many were removed.
func (in *Ingester) RemoveFile(path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0
	}
	in.mu.Lock()
	state, ok := in.files[abs]
	delete(in.files, abs)
	in.mu.Unlock()
	if !ok {
		return 0
	}
	id := FileID(abs)
	for i := 0; i < state.chunks; i++ {
		_ = in.store.Delete(in.collection, ChunkID(id, i))
	}
	in.logger.Debug("File removed", zap.String("path", abs), zap.Int("chunks", state.chunks))
	return state.chunks
}

// Files returns the ingested file paths in sorted order.
func (in *Ingester) Files() []string {
	in.mu.Lock()
	paths := make([]string, 0, len(in.files))
	for p := range in.files {
		paths = append(paths, p)
	}
	in.mu.Unlock()
	slices.Sort(paths)
	return paths
}
