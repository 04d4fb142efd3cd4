package exifai

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// Watcher reports image files that were created or changed under a set of
// directories, once they have been quiet for the debounce interval.
type Watcher struct {
	exts     []string
	debounce time.Duration
	// quiet is how long events are ignored for a path after it was handled,
	// since writing metadata modifies the file.
	quiet time.Duration

	w          *fsnotify.Watcher
	mu         sync.Mutex
	timers     map[string]*time.Timer
	busy       map[string]bool
	quietUntil map[string]time.Time
}

// NewWatcher watches roots and every directory below them.
func NewWatcher(roots []string, exts []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	w := &Watcher{
		exts:       exts,
		debounce:   debounce,
		quiet:      debounce + time.Second,
		w:          fw,
		timers:     map[string]*time.Timer{},
		busy:       map[string]bool{},
		quietUntil: map[string]time.Time{},
	}
	for _, r := range roots {
		if err := w.addTree(r); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && hidden(path) {
				return godirwalk.SkipThis
			}
			if !de.IsDir() {
				return nil
			}
			klog.V(1).Infof("watching %s", path)
			if err := w.w.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		},
	})
}

// Run calls fn for each settled path, one at a time, until ctx is done.
// It returns only after a call to fn in progress has finished.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context, string)) error {
	defer w.w.Close()
	defer w.stopTimers()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	ready := make(chan string, 64)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-ready:
				if _, err := os.Stat(p); err != nil {
					klog.V(1).Infof("%s went away: %v", p, err)
					continue
				}
				w.mu.Lock()
				w.busy[p] = true
				w.mu.Unlock()

				fn(ctx, p)

				w.mu.Lock()
				delete(w.busy, p)
				w.quietUntil[p] = time.Now().Add(w.quiet)
				w.mu.Unlock()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, e, ready)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, e fsnotify.Event, ready chan<- string) {
	klog.V(2).Infof("event: %v", e)
	if hidden(e.Name) {
		return
	}
	if e.Has(fsnotify.Create) {
		if st, err := os.Stat(e.Name); err == nil && st.IsDir() {
			if err := w.addTree(e.Name); err != nil {
				klog.Errorf("add %s: %v", e.Name, err)
			}
			return
		}
	}
	if !allowed(e.Name, w.exts) {
		return
	}
	if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
		return
	}
	w.schedule(ctx, e.Name, ready)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.busy[path] || time.Now().Before(w.quietUntil[path]) {
		klog.V(2).Infof("ignoring event for recently handled %s", path)
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
}
