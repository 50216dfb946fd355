// Package watcher re-ingests documents when their source files change on
// disk, shrinking the window in which cached structure drifts from the file.
package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches ingested source files and invokes a re-ingest callback on
// change. Edits arrive as bursts of write events, so callbacks are debounced.
type Watcher struct {
	onChange    func(documentID, path string)
	extensions  []string
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	docByPath   map[string]string // watched file path -> document id
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger // optional; when set, logs debug events
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output (file events, re-ingests).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the event debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher. onChange is called with the document id and
// path of a changed source file. extensions filter which files are accepted
// for tracking (empty = all).
func NewWatcher(extensions []string, onChange func(documentID, path string), opts ...Option) *Watcher {
	w := &Watcher{
		onChange:    onChange,
		extensions:  extensions,
		debounce:    defaultDebounce,
		docByPath:   make(map[string]string),
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns immediately; events are handled on a
// background goroutine until Stop.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsw
	w.started = true
	go w.loop()
	return nil
}

// Track registers a source file for drift re-ingestion under the given
// document id. Tracking the same path again rebinds it.
func (w *Watcher) Track(documentID, path string) error {
	if !w.started {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !w.accepts(abs) {
		return nil
	}

	w.mu.Lock()
	_, known := w.docByPath[abs]
	w.docByPath[abs] = documentID
	w.mu.Unlock()

	if !known {
		// fsnotify watches directories more reliably than single files
		// across editors that replace-on-save.
		if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
			return err
		}
	}
	if w.logger != nil {
		w.logger.Debug("tracking source file",
			zap.String("document_id", documentID), zap.String("path", abs))
	}
	return nil
}

// Stop stops the watcher and releases its OS resources.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.handleEvent(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	documentID, tracked := w.docByPath[abs]
	if !tracked {
		w.mu.Unlock()
		return
	}
	if t, ok := w.debounceMap[abs]; ok {
		t.Stop()
	}
	w.debounceMap[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, abs)
		w.mu.Unlock()
		if w.logger != nil {
			w.logger.Debug("source file changed, re-ingesting",
				zap.String("document_id", documentID), zap.String("path", abs))
		}
		w.onChange(documentID, abs)
	})
	w.mu.Unlock()
}

func (w *Watcher) accepts(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
