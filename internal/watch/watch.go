// Package watch reports changes to the store file made by other processes.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when a closed watcher is closed again.
var ErrClosed = errors.New("watcher already closed")

// Logger is the logging surface used by the watcher.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// StoreWatcher watches the directory holding a file and signals on Changes
// whenever that file is written, created, renamed or removed. Atomic replaces
// show up as a create of the target name, so the directory is watched rather
// than the file itself.
type StoreWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  Logger
	changes chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New starts watching path. The parent directory is created when missing.
func New(path string, logger Logger) (*StoreWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	if logger == nil {
		logger = nopLogger{}
	}
	w := &StoreWatcher{
		path:    abs,
		watcher: fw,
		logger:  logger,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one notice per burst of changes. Bursts that arrive before
// the previous notice is consumed are coalesced. The channel is closed by Close.
func (w *StoreWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Path returns the watched file.
func (w *StoreWatcher) Path() string {
	return w.path
}

// Close stops watching and waits for the event loop to exit.
func (w *StoreWatcher) Close() error {
	err := ErrClosed
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		<-w.stopped
	})
	return err
}

func (w *StoreWatcher) loop() {
	defer close(w.stopped)
	defer close(w.changes)

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("store changed: %s", ev)
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watching %s: %v", w.path, err)
		}
	}
}

func (w *StoreWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
