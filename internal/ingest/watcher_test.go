package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startTestWatcher watches a fresh inbox holding the given tenant
// directories.
func startTestWatcher(
	t *testing.T, onChange func([]string), tenants ...string,
) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	for _, tenant := range tenants {
		if err := os.Mkdir(filepath.Join(root, tenant), 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
	}
	w, err := NewWatcher(root, 50*time.Millisecond, onChange)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Start()
	t.Cleanup(w.Stop)
	n, err := w.WatchInbox()
	if err != nil {
		t.Fatalf("WatchInbox: %v", err)
	}
	if n != len(tenants) {
		t.Fatalf("watched %d tenants, want %d", n, len(tenants))
	}
	return w, root
}

// pollUntil polls fn with the given interval until it returns true
// or the timeout expires.
func pollUntil(
	t *testing.T,
	timeout, interval time.Duration,
	msg string,
	fn func() bool,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(interval)
	}
	if fn() {
		return
	}
	t.Fatal(msg)
}

func newMockWatcher(
	root string, debounce time.Duration, onChange func([]string),
) *Watcher {
	return &Watcher{
		root:     filepath.Clean(root),
		debounce: debounce,
		pending:  make(map[string]time.Time),
		onChange: onChange,
		now:      time.Now,
	}
}

func pendingPaths(w *Watcher) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for p := range w.pending {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

type collector struct {
	mu  sync.Mutex
	got []string
}

func (c *collector) add(paths []string) {
	c.mu.Lock()
	c.got = append(c.got, paths...)
	c.mu.Unlock()
}

func (c *collector) has(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.got, path)
}

func TestWatcherReportsTenantDump(t *testing.T) {
	var c collector
	_, root := startTestWatcher(t, c.add, "acme")

	path := filepath.Join(root, "acme", "messages.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for onChange",
		func() bool { return c.has(path) })
}

func TestWatcherPicksUpNewTenant(t *testing.T) {
	var c collector
	w, root := startTestWatcher(t, c.add)

	tenant := filepath.Join(root, "tenant-a")
	if err := os.Mkdir(tenant, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	pollUntil(t, 5*time.Second, 10*time.Millisecond,
		"timed out waiting for watcher to add tenant dir",
		func() bool {
			return slices.Contains(w.fsw.WatchList(), tenant)
		})

	path := filepath.Join(tenant, "leads.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for tenant dump",
		func() bool { return c.has(path) && c.has(tenant) })
}

func TestWatcherStopIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), 50*time.Millisecond, func([]string) {})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Start()

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(w.Stop)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent Stop() timed out")
	}
}

func TestHandleEventQueuesOnlyDumps(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "inbox")
	w := newMockWatcher(root, time.Second, nil)
	p := func(parts ...string) string {
		return filepath.Join(append([]string{root}, parts...)...)
	}

	w.handleEvent(fsnotify.Event{Name: p("acme", "leads.jsonl"), Op: fsnotify.Chmod})
	w.handleEvent(fsnotify.Event{Name: p("notes.jsonl"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: p("acme", "readme.txt"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: p("acme", "old", "leads.jsonl"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: p("acme", "orders.jsonl"), Op: fsnotify.Write})
	if got := pendingPaths(w); len(got) != 0 {
		t.Fatalf("expected nothing pending, got %v", got)
	}

	w.handleEvent(fsnotify.Event{Name: p("acme", "messages.jsonl"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: p("acme", "leads-2024.jsonl"), Op: fsnotify.Rename})
	w.handleEvent(fsnotify.Event{Name: p("beta", "leads.jsonl"), Op: fsnotify.Remove})
	want := []string{
		p("acme", "leads-2024.jsonl"),
		p("acme", "messages.jsonl"),
		p("beta", "leads.jsonl"),
	}
	if got := pendingPaths(w); !slices.Equal(got, want) {
		t.Fatalf("pending = %v, want %v", got, want)
	}
}

func TestFlushRespectsDebounce(t *testing.T) {
	var called atomic.Bool
	w := newMockWatcher("/inbox", 100*time.Millisecond,
		func([]string) { called.Store(true) })

	w.pending["/inbox/acme/leads.jsonl"] = time.Now()
	w.flush()

	if called.Load() {
		t.Fatal("flush should not call onChange before debounce")
	}
	if n := len(pendingPaths(w)); n != 1 {
		t.Fatalf("expected 1 pending, got %d", n)
	}
}

func TestFlushSortsSettledPaths(t *testing.T) {
	var got []string
	w := newMockWatcher("/inbox", 10*time.Millisecond,
		func(paths []string) { got = paths })

	old := time.Now().Add(-time.Second)
	w.pending["/inbox/b/leads.jsonl"] = old
	w.pending["/inbox/a/leads.jsonl"] = old
	w.pending["/inbox/c/leads.jsonl"] = time.Now().Add(time.Hour)
	w.flush()

	if !slices.Equal(got, []string{"/inbox/a/leads.jsonl", "/inbox/b/leads.jsonl"}) {
		t.Fatalf("got %v", got)
	}
	if n := len(pendingPaths(w)); n != 1 {
		t.Fatalf("expected 1 pending after flush, got %d", n)
	}
}

func TestNewWatcherValidates(t *testing.T) {
	if _, err := NewWatcher("/inbox", time.Second, nil); !errors.Is(err, os.ErrInvalid) {
		t.Errorf("nil callback: err = %v, want os.ErrInvalid", err)
	}
	if _, err := NewWatcher("/inbox", 0, func([]string) {}); !errors.Is(err, os.ErrInvalid) {
		t.Errorf("zero debounce: err = %v, want os.ErrInvalid", err)
	}
}

func TestWatchInboxMissingRoot(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"),
		time.Second, func([]string) {})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Start()
	t.Cleanup(w.Stop)
	if _, err := w.WatchInbox(); err == nil {
		t.Fatal("expected error for missing inbox root")
	}
}
