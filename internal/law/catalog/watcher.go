package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"altar/internal/law"
)

const defaultDebounce = 250 * time.Millisecond

// ReloadFunc observes the outcome of every reload attempt. c is nil when err
// is set.
type ReloadFunc func(c *law.Catalog, err error)

// Watcher reloads a catalog path into a Holder when its files change. Bursts
// of events are collapsed into a single reload once the path has been quiet
// for the debounce window. A catalog that fails to load or validate is
// logged and the previous one stays published.
type Watcher struct {
	path     string
	holder   *Holder
	logger   *slog.Logger
	debounce time.Duration
	onReload ReloadFunc

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	cancel  context.CancelFunc
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger used for reload outcomes.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the quiet period required before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook registers a callback invoked after every reload attempt.
func WithReloadHook(fn ReloadFunc) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher builds a watcher for path. It does not start watching.
func NewWatcher(path string, holder *Holder, opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watch path is required")
	}
	if holder == nil {
		return nil, errors.New("holder is required")
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		holder:   holder,
		logger:   slog.Default(),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching in a background goroutine until ctx is cancelled
// or Stop is called. A file path is watched through its parent directory so
// editors that replace the file on save are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}

	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("stat catalog %s: %w", w.path, err)
	}
	dir := w.path
	if !info.IsDir() {
		dir = filepath.Dir(w.path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.watcher = fw
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, fw, info.IsDir(), w.done)

	w.logger.InfoContext(ctx, "catalog watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.watcher == nil {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.watcher, w.cancel, w.done = nil, nil, nil
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, isDir bool, done chan<- struct{}) {
	defer close(done)
	defer fw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(event, isDir) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.WarnContext(ctx, "catalog watcher error", "path", w.path, "error", err)

		case <-timer.C:
			w.Reload(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event, isDir bool) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if isDir {
		return isCatalogFile(filepath.Base(event.Name))
	}
	return filepath.Clean(event.Name) == w.path
}

// Reload loads the watched path and publishes it when valid.
func (w *Watcher) Reload(ctx context.Context) {
	start := time.Now()
	c, err := Load(w.path)
	if err == nil {
		_, err = w.holder.Replace(c)
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "catalog reload rejected, keeping current catalog",
			"path", w.path,
			"current_version", w.holder.Current().Version(),
			"error", err,
		)
		c = nil
	} else {
		w.logger.InfoContext(ctx, "catalog reloaded",
			"path", w.path,
			"version", c.Version(),
			"rules", c.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	if w.onReload != nil {
		w.onReload(c, err)
	}
}
