package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/showroom/engine/core"
)

var ErrWatcherClosed = errors.New("watcher already closed")

// Change reports a write, creation or removal of a file the manifest reads.
type Change struct {
	Asset Descriptor
	Path  string
	Op    fsnotify.Op
}

// Watcher reports changes to manifest files under the watched directories.
type Watcher struct {
	manifest Manifest
	onChange func(Change)

	mutex    sync.Mutex
	fsnotify *fsnotify.Watcher
	isClosed bool
	done     chan struct{}
	stopped  chan struct{}
}

func NewWatcher(manifest Manifest, onChange func(Change)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		manifest: manifest,
		onChange: onChange,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.start()
	return w, nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (w *Watcher) AddRecursive(name string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return ErrWatcherClosed
	}
	return w.watchRecursive(name)
}

// Close stops the event loop and releases the underlying watches.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	w.isClosed = true
	close(w.done)
	w.mutex.Unlock()

	<-w.stopped
	return nil
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			w.mutex.Lock()
			if !w.isClosed {
				if err := w.watchRecursive(e.Name); err != nil {
					core.LogWarn("asset watcher: cannot watch %s: %s", e.Name, err)
				}
			}
			w.mutex.Unlock()
			return
		}
	}
	if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	d, ok := w.manifest.Lookup(e.Name)
	if !ok {
		return
	}
	core.LogDebug("asset watcher: %s %s (%s)", e.Op, e.Name, d.Name)
	if w.onChange != nil {
		w.onChange(Change{Asset: d, Path: e.Name, Op: e.Op})
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		return nil
	})
}
