package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type changeRecorder struct {
	mu    sync.Mutex
	calls []string // "documentID|path"
}

func (r *changeRecorder) record(documentID, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, documentID+"|"+path)
}

func (r *changeRecorder) wait(t *testing.T, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		if len(r.calls) >= n {
			out := append([]string(nil), r.calls...)
			r.mu.Unlock()
			return out
		}
		r.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestWatcherReingestsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.docx")
	if err := os.WriteFile(path, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := &changeRecorder{}
	w := NewWatcher([]string{".docx"}, rec.record,
		WithLogger(zap.NewNop()), WithDebounce(30*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Track("doc-1", path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}

	calls := rec.wait(t, 1, 3*time.Second)
	if len(calls) == 0 {
		t.Fatal("no change callback fired")
	}
	abs, _ := filepath.Abs(path)
	if calls[0] != "doc-1|"+abs {
		t.Errorf("callback = %s", calls[0])
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.docx")
	if err := os.WriteFile(path, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := &changeRecorder{}
	w := NewWatcher(nil, rec.record, WithDebounce(150*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Track("doc-1", path); err != nil {
		t.Fatal(err)
	}

	// A burst of writes within the debounce window collapses to one callback.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("burst"), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	calls := rec.wait(t, 1, 3*time.Second)
	if len(calls) == 0 {
		t.Fatal("no change callback fired")
	}
	// Allow the window to drain fully, then confirm no pile-up.
	time.Sleep(300 * time.Millisecond)
	final := rec.wait(t, 0, 0)
	if len(final) > 2 {
		t.Errorf("callbacks = %d, debounce did not collapse the burst", len(final))
	}
}

func TestWatcherIgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "tracked.docx")
	untracked := filepath.Join(dir, "other.docx")
	for _, p := range []string{tracked, untracked} {
		if err := os.WriteFile(p, []byte("v1"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	rec := &changeRecorder{}
	w := NewWatcher(nil, rec.record, WithDebounce(30*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Track("doc-1", tracked); err != nil {
		t.Fatal(err)
	}

	// Only the untracked sibling changes; no callback may fire.
	if err := os.WriteFile(untracked, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if calls := rec.wait(t, 0, 0); len(calls) != 0 {
		t.Errorf("callbacks for untracked file: %v", calls)
	}
}

func TestWatcherExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := &changeRecorder{}
	w := NewWatcher([]string{".pdf", ".docx"}, rec.record, WithDebounce(30*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Filtered-out extensions are never tracked.
	if err := w.Track("doc-1", path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if calls := rec.wait(t, 0, 0); len(calls) != 0 {
		t.Errorf("callbacks for filtered extension: %v", calls)
	}
}

func TestTrackBeforeStartIsNoop(t *testing.T) {
	w := NewWatcher(nil, func(string, string) {})
	if err := w.Track("doc-1", "/some/file.pdf"); err != nil {
		t.Errorf("Track before Start: %v", err)
	}
}
