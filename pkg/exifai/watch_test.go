package exifai

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher([]string{root}, DefaultExtensions, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, path string) { got <- path })
	}()

	next := func() string {
		t.Helper()
		select {
		case p := <-got:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher")
			return ""
		}
	}

	// Several writes to one file settle into a single callback.
	img := filepath.Join(root, "a.jpg")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(img, []byte{byte(i)}, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if p := next(); p != img {
		t.Errorf("got %q, want %q", p, img)
	}

	// New directories are picked up.
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	nested := filepath.Join(sub, "b.png")
	if err := os.WriteFile(nested, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if p := next(); p != nested {
		t.Errorf("got %q, want %q", p, nested)
	}

	select {
	case p := <-got:
		t.Errorf("unexpected extra callback for %q", p)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcherQuietPeriod(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher([]string{root}, DefaultExtensions, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.quiet = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	img := filepath.Join(root, "a.jpg")
	got := make(chan string, 16)
	go func() {
		_ = w.Run(ctx, func(_ context.Context, path string) {
			// Simulates a metadata write.
			if err := os.WriteFile(path, []byte("tagged"), 0o600); err != nil {
				t.Errorf("write: %v", err)
			}
			got <- path
		})
	}()

	if err := os.WriteFile(img, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher")
	}
	select {
	case p := <-got:
		t.Errorf("handled own write to %q", p)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherWaitsForHandler(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher([]string{root}, DefaultExtensions, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var finished atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context, string) {
			select {
			case <-started:
			default:
				close(started)
			}
			time.Sleep(200 * time.Millisecond)
			finished.Store(true)
		})
	}()

	if err := os.WriteFile(filepath.Join(root, "a.jpg"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher")
	}
	cancel()

	select {
	case <-done:
		if !finished.Load() {
			t.Error("Run returned while the handler was still running")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewWatcherMissingRoot(t *testing.T) {
	if _, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, DefaultExtensions, time.Second); err == nil {
		t.Error("NewWatcher of a missing root succeeded")
	}
}
