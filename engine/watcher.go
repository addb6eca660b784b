package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the ontology and rules graphs when their backing files
// change on disk. Editors produce bursts of writes, so changes are
// debounced per path before the reload is posted.
type Watcher struct {
	runtime *Runtime
	fsw     *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer

	done chan struct{}
}

// NewWatcher creates a watcher over the runtime's input files. Watches
// are registered on the containing directories so file replacement (the
// common editor save pattern) is observed.
func NewWatcher(r *Runtime, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		runtime: r,
		fsw:     fsw,
		logger:  logger,
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
	dirs := map[string]bool{}
	for _, path := range []string{r.cfg.DictionaryPath, r.cfg.OntologyPath, r.cfg.RulesPath} {
		if path == "" {
			continue
		}
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug("watch failed", "dir", dir, "error", err)
		}
	}
	return w, nil
}

// Start begins processing file events.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
	w.logger.Info("input file watcher started")
}

// Stop closes the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	watched := map[string]bool{
		w.runtime.cfg.DictionaryPath: true,
		w.runtime.cfg.OntologyPath:   true,
		w.runtime.cfg.RulesPath:      true,
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(ev.Name)
			match := ""
			for p := range watched {
				if p != "" && filepath.Clean(p) == path {
					match = p
					break
				}
			}
			if match == "" {
				continue
			}
			w.schedule(match)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watch error", "error", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.runtime.cfg.Debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.runtime.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Info("input file changed", "path", path)
		w.runtime.ReloadInputFile(path)
	})
}
