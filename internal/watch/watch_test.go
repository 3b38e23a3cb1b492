package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherRerunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "input.txt")
	other := filepath.Join(dir, "other.txt")
	if err := os.WriteFile(target, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	changed := make(chan struct{}, 8)
	w := New(target, func(ctx context.Context) {
		calls.Add(1)
		changed <- struct{}{}
	})
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("a sibling file must not trigger a run")
	case <-time.After(200 * time.Millisecond):
	}

	// a burst of writes is coalesced into one call
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("second"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a run after the file changed")
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("OnChange called %d times, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "input.txt"), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() expected error for a missing directory")
	}
}
