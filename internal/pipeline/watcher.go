// Package pipeline runs imports in bulk and watches the content directory
// for asset changes.
package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/assetpipe/internal/logger"
	"github.com/Faultbox/assetpipe/pkg/asset"
)

// ErrWatcherClosed is returned when adding paths to a closed watcher.
var ErrWatcherClosed = errors.New("watcher already closed")

// Event is a change to an asset file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Handler receives asset events. It runs on the watcher goroutine.
type Handler func(Event)

// Suspender pauses change notifications while the pipeline writes assets.
type Suspender interface {
	Suspend()
	Resume()
}

// Watcher reports changes to asset files below a directory. New
// subdirectories are watched as they appear. Events that arrive while the
// watcher is suspended are dropped.
type Watcher struct {
	fsw     *fsnotify.Watcher
	handler Handler
	log     *zap.Logger

	mu        sync.Mutex
	suspended int
	closed    bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching dir recursively.
func NewWatcher(dir string, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		handler: handler,
		log:     logger.Named("watcher"),
		done:    make(chan struct{}),
	}
	if err := w.addRecursive(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Suspend stops event delivery until a matching Resume. Calls nest.
func (w *Watcher) Suspend() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suspended++
}

// Resume undoes one Suspend.
func (w *Watcher) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.suspended == 0 {
		w.log.Warn("resume without matching suspend")
		return
	}
	w.suspended--
}

// Suspended reports whether events are currently dropped.
func (w *Watcher) Suspended() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.suspended > 0
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWatcherClosed
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(e)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(e.Name); err != nil {
				w.log.Warn("failed to watch new directory", logger.File(e.Name), zap.Error(err))
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(e.Name), asset.FileExtension) {
		return
	}
	if w.Suspended() {
		w.log.Debug("dropping event while suspended", logger.File(e.Name), zap.Stringer("op", e.Op))
		return
	}
	if w.handler != nil {
		w.handler(Event{Path: e.Name, Op: e.Op})
	}
}
