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

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ErrWatcherNotStarted is returned by directory changes before Start.
var ErrWatcherNotStarted = errors.New("watcher not started")

// Watcher keeps an Ingester's collection in sync with directories on disk.
// Created and written files are ingested after a quiet period; removed files
// have their chunks deleted.
type Watcher struct {
	ingester  *Ingester
	recursive bool
	debounce  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	roots   []string
	watched map[string][]string // root -> directories added to fsw
	pending map[string]*time.Timer
	done    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WatchRecursive controls whether subdirectories are watched. Default true.
func WatchRecursive(recursive bool) WatcherOption {
	return func(w *Watcher) { w.recursive = recursive }
}

// WatchDebounce sets the quiet period before a changed file is ingested.
func WatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher feeding in.
func NewWatcher(in *Ingester, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		ingester:  in,
		recursive: true,
		debounce:  defaultDebounce,
		logger:    in.logger,
		watched:   make(map[string][]string),
		pending:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching roots. It runs until ctx is done or Stop is called.
// Existing files are not ingested; call Sync for that.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	for _, root := range roots {
		if err := w.addRootLocked(root); err != nil {
			w.cancel()
			_ = fsw.Close()
			w.fsw = nil
			return err
		}
	}
	w.logger.Debug("Watcher started",
		zap.Strings("roots", w.roots),
		zap.String("collection", w.ingester.Collection()),
		zap.Bool("recursive", w.recursive))
	go w.run(w.ctx, fsw, w.done)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("Watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if ev.Has(fsnotify.Create) {
				w.handleNewDirectory(path)
			}
			return
		}
		if w.ingester.Allowed(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancelPending(path)
		if w.ingester.Allowed(path) {
			w.ingester.RemoveFile(path)
		}
	}
}

// handleNewDirectory watches a directory created or moved under a root and
// ingests what is already inside it.
func (w *Watcher) handleNewDirectory(dir string) {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	root := w.rootOfLocked(dir)
	dirs, err := w.watchTreeLocked(dir)
	if err != nil {
		w.logger.Warn("Failed to watch new directory", zap.String("path", dir), zap.Error(err))
	}
	w.watched[root] = append(w.watched[root], dirs...)
	ctx := w.ctx
	w.mu.Unlock()
	if _, err := w.ingester.IngestDirectory(ctx, dir); err != nil {
		w.logger.Warn("Failed to ingest new directory", zap.String("path", dir), zap.Error(err))
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	ctx := w.ctx
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if _, err := w.ingester.IngestFile(ctx, path); err != nil {
			w.logger.Warn("Failed to ingest file", zap.String("path", path), zap.Error(err))
		}
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rootOfLocked(path) != ""
}

func (w *Watcher) rootOfLocked(path string) string {
	for _, root := range w.roots {
		if inDir(root, path) {
			return root
		}
	}
	return ""
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// watchTreeLocked adds dir, and its subdirectories when recursive, to fsw.
func (w *Watcher) watchTreeLocked(dir string) ([]string, error) {
	if !w.recursive {
		if err := w.fsw.Add(dir); err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func (w *Watcher) addRootLocked(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	if slices.Contains(w.roots, abs) {
		return nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", abs)
	}
	dirs, err := w.watchTreeLocked(abs)
	if err != nil {
		for _, d := range dirs {
			_ = w.fsw.Remove(d)
		}
		return err
	}
	w.roots = append(w.roots, abs)
	w.watched[abs] = dirs
	return nil
}

// AddDirectory starts watching root. With syncExisting the files already in
// it are ingested in the background.
func (w *Watcher) AddDirectory(root string, syncExisting bool) error {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return ErrWatcherNotStarted
	}
	if err := w.addRootLocked(root); err != nil {
		w.mu.Unlock()
		return err
	}
	ctx := w.ctx
	w.mu.Unlock()
	w.logger.Debug("Watcher directory added", zap.String("path", root), zap.Bool("sync_existing", syncExisting))
	if syncExisting {
		go func() {
			if _, err := w.ingester.IngestDirectory(ctx, root); err != nil {
				w.logger.Warn("Directory sync failed", zap.String("path", root), zap.Error(err))
			}
		}()
	}
	return nil
}

// RemoveDirectory stops watching root. Chunks already ingested stay in the collection.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return ErrWatcherNotStarted
	}
	i := slices.Index(w.roots, abs)
	if i < 0 {
		return nil
	}
	for _, d := range w.watched[abs] {
		_ = w.fsw.Remove(d)
	}
	delete(w.watched, abs)
	w.roots = slices.Delete(w.roots, i, i+1)
	w.logger.Debug("Watcher directory removed", zap.String("path", abs))
	return nil
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.roots)
}

// Sync ingests the existing files of every root and returns how many were ingested.
func (w *Watcher) Sync(ctx context.Context) (int, error) {
	var total int
	var errs []error
	for _, root := range w.Directories() {
		n, err := w.ingester.IngestDirectory(ctx, root)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.cancel()
	_ = w.fsw.Close()
	w.fsw = nil
	done := w.done
	w.mu.Unlock()
	<-done
}
