// Package watch provides debounced filesystem watching for swarm scope paths.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a change is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of paths and reports changes after a debounce window.
// Bursts of writes (editor saves, build output) collapse into a single event.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	events   chan string
	done     chan struct{}
}

// New creates a watcher over the given paths. Directories are watched
// recursively. A zero debounce uses DefaultDebounce.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		debounce: debounce,
		events:   make(chan string, 1),
		done:     make(chan struct{}),
	}

	for _, path := range paths {
		if err := w.addRecursive(path); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.loop()

	return w, nil
}

// Events returns the channel on which changed paths are delivered.
// At most one event is delivered per debounce window.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

// addRecursive registers path with the underlying watcher, descending into
// subdirectories. Hidden directories and common build output are skipped.
func (w *Watcher) addRecursive(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		// Watch the containing directory; fsnotify handles file-level
		// events through the parent on most platforms.
		return w.watcher.Add(filepath.Dir(path))
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) && p != path {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

// skipDir reports whether a directory should be excluded from watching.
func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	switch name {
	case "node_modules", "vendor", "target", "dist", "build":
		return true
	}
	return false
}

// loop collects raw events and emits one debounced change per quiet window.
func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time
	var lastPath string

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if skipDir(filepath.Base(filepath.Dir(event.Name))) {
				continue
			}

			// New directories need to be picked up for recursive coverage.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(event.Name)
				}
			}

			lastPath = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			select {
			case w.events <- lastPath:
			default:
				// Receiver is busy; drop rather than block the loop.
			}
			timer = nil
			timerC = nil

		case <-w.watcher.Errors:
			// Keep watching through transient errors.
		}
	}
}
