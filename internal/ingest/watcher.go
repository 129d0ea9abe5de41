package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher follows an inbox laid out as <root>/<user>/<kind>*.jsonl.
// It watches the root and one directory per tenant, and hands
// dump paths (or new tenant directories) to onChange once they
// have been quiet for the debounce period.
type Watcher struct {
	root     string
	onChange func(paths []string)
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewWatcher creates a debounced watcher for the inbox at root.
func NewWatcher(
	root string, debounce time.Duration, onChange func(paths []string),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil: %w", os.ErrInvalid)
	}
	if debounce <= 0 {
		return nil, fmt.Errorf("debounce must be positive: %w", os.ErrInvalid)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:     filepath.Clean(root),
		onChange: onChange,
		fsw:      fsw,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// WatchInbox adds the root and every tenant directory directly
// below it. Deeper directories are not part of the inbox layout
// and are left alone. Returns the number of tenant directories
// watched.
func (w *Watcher) WatchInbox() (tenants int, err error) {
	if err := w.fsw.Add(w.root); err != nil {
		return 0, fmt.Errorf("watching inbox %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return 0, fmt.Errorf("listing inbox %s: %w", w.root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		if err := w.fsw.Add(dir); err != nil {
			log.Warn().Err(err).Str("tenant", e.Name()).
				Msg("tenant inbox not watched")
			continue
		}
		tenants++
	}
	return tenants, nil
}

// Start begins processing file events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for it to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.fsw.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("inbox watcher error")

		case <-ticker.C:
			w.flush()
		}
	}
}

// isTenantDir reports whether path sits directly under the root.
func (w *Watcher) isTenantDir(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == w.root
}

// handleEvent queues dump files that were written, created,
// renamed or removed. A new tenant directory is watched and
// queued whole, so dumps copied in before the watch was added
// are not missed. Everything else is ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if event.Has(fsnotify.Create) && w.isTenantDir(event.Name) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				log.Warn().Err(err).Str("path", event.Name).
					Msg("tenant inbox not watched")
			}
			w.queue(event.Name)
			return
		}
	}
	if _, _, ok := ClassifyInboxPath(w.root, event.Name); !ok {
		return
	}
	w.queue(event.Name)
}

func (w *Watcher) queue(path string) {
	w.mu.Lock()
	w.pending[path] = w.now()
	w.mu.Unlock()
}

// flush hands settled paths to onChange, sorted so each tenant's
// dumps are imported together.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	now := w.now()
	var ready []string
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if len(ready) > 0 {
		slices.Sort(ready)
		log.Info().Int("paths", len(ready)).Msg("inbox changed, importing")
		w.onChange(ready)
	}
}
