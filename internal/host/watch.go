package host

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watcher reports changes to a set of files. It watches their directories
// rather than the files, so editors that save by renaming a temporary file
// over the original are followed. Bursts of events for one file are reported
// once, 100ms after the last of them.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
	done    chan struct{}

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]int
}

// NewWatcher watches files. More can be added later with Set.
func NewWatcher(files ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
	}
	if err := watcher.Set(files...); err != nil {
		_ = w.Close()
		return nil, err
	}
	go watcher.run()
	return watcher, nil
}

// Set replaces the watched files. Empty paths are ignored.
func (w *Watcher) Set(files ...string) error {
	want := make(map[string]bool, len(files))
	for _, f := range files {
		if f != "" {
			want[w.abs(f)] = true
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for f := range want {
		if w.files[f] {
			continue
		}
		dir := filepath.Dir(f)
		if w.dirs[dir] == 0 {
			if err := w.watcher.Add(dir); err != nil {
				return err
			}
		}
		w.dirs[dir]++
		w.files[f] = true
	}
	for f := range w.files {
		if want[f] {
			continue
		}
		dir := filepath.Dir(f)
		w.dirs[dir]--
		if w.dirs[dir] == 0 {
			delete(w.dirs, dir)
			_ = w.watcher.Remove(dir)
		}
		delete(w.files, f)
	}
	return nil
}

// Changes returns Events.
func (w *Watcher) Changes() <-chan string { return w.Events }

// Failures returns Errors.
func (w *Watcher) Failures() <-chan error { return w.Errors }

// abs returns the form of path that Events reports.
func (*Watcher) abs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (w *Watcher) watched(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[name]
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.Events)
	defer close(w.Errors)

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.watched(name) {
				continue
			}
			pending[name] = true
			timer.Reset(debounce)
		case <-timer.C:
			for name := range pending {
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
			clear(pending)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
