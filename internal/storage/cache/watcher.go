package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/lopen-dev/lopen/internal/logging"
)

// Watcher drops cache entries the moment a watched source file changes,
// instead of waiting for the next Get to notice the mtime mismatch. It
// is an optimization for long-running sessions; the mtime check on Get
// remains the source of truth for validity.
type Watcher struct {
	watcher    *fsnotify.Watcher
	sections   *SectionCache
	assessment *AssessmentCache
	log        *logging.Logger

	mu      sync.Mutex
	watched map[string]bool // files under watch, by absolute path
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a cache invalidation watcher over both caches.
func NewWatcher(sections *SectionCache, assessment *AssessmentCache, log *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:    fw,
		sections:   sections,
		assessment: assessment,
		log:        log,
		watched:    make(map[string]bool),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Watch registers a source file for live invalidation. The file's
// directory is watched (fsnotify works better with directories) and
// events are filtered to registered files.
func (w *Watcher) Watch(file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve watch path: %w", err)
	}

	w.mu.Lock()
	already := w.watched[abs]
	w.watched[abs] = true
	w.mu.Unlock()
	if already {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	return nil
}

// Start begins processing filesystem events until Close is called.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)
	ctx := context.Background()

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.mu.Lock()
			registered := w.watched[event.Name]
			w.mu.Unlock()
			if !registered {
				continue
			}

			w.log.Debug("watched file changed, invalidating cache entries", "file", event.Name)
			if err := w.sections.InvalidateFile(ctx, event.Name); err != nil {
				w.log.Warn("section cache invalidation failed", "file", event.Name, "error", err)
			}
			if err := w.assessment.InvalidateWatching(ctx, event.Name); err != nil {
				w.log.Warn("assessment cache invalidation failed", "file", event.Name, "error", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

// Close stops event processing and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.stopCh)
	err := w.watcher.Close()
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.doneCh
	}
	return err
}
