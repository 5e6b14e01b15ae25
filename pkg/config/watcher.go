package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/msgboard/msgboard/pkg/logger"
)

// Watcher notifies callbacks when watched configuration files change.
type Watcher struct {
	watcher   *fsnotify.Watcher
	callbacks []func()
	mu        sync.RWMutex
	// watched maps absolute paths to the context that registered them.
	watched   map[string]context.Context
	log       logger.Logger
	stopCh    chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewWatcher creates a new configuration file watcher.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:   fsWatcher,
		callbacks: make([]func(), 0),
		watched:   make(map[string]context.Context),
		stopCh:    make(chan struct{}),
	}, nil
}

// Watch starts watching path until ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}
	w.mu.Lock()
	w.watched[absPath] = ctx
	if w.log == nil {
		w.log = logger.FromContext(ctx)
	}
	w.mu.Unlock()
	go func() {
		select {
		case <-ctx.Done():
		case <-w.stopCh:
		}
		w.mu.Lock()
		delete(w.watched, absPath)
		w.mu.Unlock()
		if err := w.watcher.Remove(absPath); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
			w.logger().Debug("failed to remove config watch", "path", absPath, "error", err)
		}
	}()
	w.startOnce.Do(func() {
		go w.handleEvents()
	})
	return nil
}

// OnChange registers a callback to be invoked when a watched file changes.
func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

func (w *Watcher) handleEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger().Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mu.RLock()
	pathCtx, watched := w.watched[event.Name]
	w.mu.RUnlock()
	if !watched || pathCtx.Err() != nil {
		return
	}
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.notifyCallbacks()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Editors that save by rename drop the inotify watch; re-arm it.
		if err := w.watcher.Add(event.Name); err == nil {
			w.notifyCallbacks()
		}
	}
}

func (w *Watcher) notifyCallbacks() {
	w.mu.RLock()
	callbacks := make([]func(), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback()
		}
	}
}

func (w *Watcher) logger() logger.Logger {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.log == nil {
		return logger.FromContext(context.Background())
	}
	return w.log
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var closeErr error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		if err := w.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close watcher: %w", err)
		}
	})
	return closeErr
}
