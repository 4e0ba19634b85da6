// File: dmdaksh/confkit/watch.go
package confkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultMaxWatchers = 100 // Prevent resource exhaustion

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// Debounce duration to avoid rapid reloads
	Debounce time.Duration

	// MaxWatchers limits concurrent watch channels
	MaxWatchers int

	// ReloadTimeout for file reload operations
	ReloadTimeout time.Duration
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		Debounce:      DefaultDebounce,
		MaxWatchers:   DefaultMaxWatchers,
		ReloadTimeout: DefaultReloadTimeout,
	}
}

// watcher manages file watching state
type watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	filePath         string
	fsw              *fsnotify.Watcher
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	subscribers      map[int64]chan string
	subscriberID     atomic.Int64
	debounceTimer    *time.Timer
}

// AutoUpdate enables automatic configuration reloading when the file changes
func (s *Store) AutoUpdate() error {
	return s.AutoUpdateWithOptions(DefaultWatchOptions())
}

// AutoUpdateWithOptions enables automatic configuration reloading with custom options.
// It is a no-op when no configuration file has been loaded. Watching is based
// on filesystem notifications of the file's parent directory, so atomic
// replace-on-save (temp file + rename) is observed as well as in-place writes.
func (s *Store) AutoUpdateWithOptions(opts WatchOptions) error {
	// Validate options
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	s.mutex.Lock()
	filePath := s.configFilePath
	if filePath == "" {
		s.mutex.Unlock()
		// No file configured, nothing to watch
		return nil
	}

	var stale *watcher
	if s.watcher != nil {
		if s.watcher.filePath == filePath {
			s.mutex.Unlock()
			return nil // Already watching this file
		}
		// Path changed; detach the old watcher and stop it outside the lock
		stale = s.watcher
		s.watcher = nil
	}
	s.mutex.Unlock()

	if stale != nil {
		stale.stop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the parent directory rather than the file itself: editors and
	// atomic saves replace the inode, which silently drops per-file watches.
	dir := filepath.Dir(filePath)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch directory '%s': %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		ctx:         ctx,
		cancel:      cancel,
		opts:        opts,
		filePath:    filePath,
		fsw:         fsw,
		subscribers: make(map[int64]chan string),
	}

	s.mutex.Lock()
	if s.watcher != nil {
		// Lost a race with a concurrent AutoUpdate; keep the existing watcher
		s.mutex.Unlock()
		cancel()
		fsw.Close()
		return nil
	}
	s.watcher = w
	s.mutex.Unlock()

	go w.watchLoop(s)
	return nil
}

// StopAutoUpdate stops automatic configuration reloading
func (s *Store) StopAutoUpdate() {
	s.mutex.Lock()
	w := s.watcher
	s.watcher = nil
	s.mutex.Unlock()

	// Stop outside the store lock: an in-flight reload needs the lock to finish
	if w != nil {
		w.stop()
	}
}

// Watch returns a channel that receives keys of changed configuration values
func (s *Store) Watch() <-chan string {
	return s.WatchWithOptions(DefaultWatchOptions())
}

// WatchWithOptions returns a change notification channel with custom watch
// options. The watcher is started if it is not already running; when no
// configuration file is loaded, a closed channel is returned.
func (s *Store) WatchWithOptions(opts WatchOptions) <-chan string {
	s.mutex.RLock()
	w := s.watcher
	filePath := s.configFilePath
	s.mutex.RUnlock()

	// If no file configured, return closed channel
	if filePath == "" {
		ch := make(chan string)
		close(ch)
		return ch
	}

	// If watcher exists and is watching the current file, just subscribe
	if w != nil && w.filePath == filePath && w.watching.Load() {
		return w.subscribe()
	}

	// First ensure auto-update is running
	if err := s.AutoUpdateWithOptions(opts); err != nil {
		s.getLogger().WithError(err).Error("failed to start file watcher")
		ch := make(chan string)
		close(ch)
		return ch
	}

	s.mutex.RLock()
	w = s.watcher
	s.mutex.RUnlock()

	if w == nil {
		// No file to watch, return closed channel
		ch := make(chan string)
		close(ch)
		return ch
	}

	return w.subscribe()
}

// WatchFile stops any existing file watcher, loads a new configuration file,
// and starts a new watcher on that file path. Optionally accepts format hint.
func (s *Store) WatchFile(filePath string, formatHint ...string) error {
	// Capture the running watcher's options before stopping it
	s.mutex.RLock()
	opts := DefaultWatchOptions()
	if s.watcher != nil {
		opts = s.watcher.opts
	}
	s.mutex.RUnlock()

	// Stop any currently running watcher
	s.StopAutoUpdate()

	// Set format hint if provided
	if len(formatHint) > 0 {
		if err := s.SetFileFormat(formatHint[0]); err != nil {
			return fmt.Errorf("invalid format hint: %w", err)
		}
	}

	// Load the new file
	if err := s.LoadFile(filePath); err != nil {
		return fmt.Errorf("failed to load new file for watching: %w", err)
	}

	// Start new watcher on the new file path
	return s.AutoUpdateWithOptions(opts)
}

// IsWatching returns true if auto-update is enabled
func (s *Store) IsWatching() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.watcher != nil && s.watcher.watching.Load()
}

// WatcherCount returns the number of active watch channels
func (s *Store) WatcherCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.watcher == nil {
		return 0
	}

	s.watcher.mu.RLock()
	defer s.watcher.mu.RUnlock()
	return len(s.watcher.subscribers)
}

// watchLoop is the main file watching loop
func (w *watcher) watchLoop(s *Store) {
	if !w.watching.CompareAndSwap(false, true) {
		return // Already watching
	}
	defer w.watching.Store(false)
	defer w.fsw.Close()

	targetName := filepath.Base(w.filePath)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// The parent directory is watched; only events for our file matter
			if filepath.Base(event.Name) != targetName {
				continue
			}

			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				// Write and Create cover editors, echo, and atomic rename saves
				w.scheduleReload(s)

			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				// Editors often remove or rename before writing the
				// replacement; only report deletion when the file is gone
				if _, err := os.Stat(w.filePath); err != nil {
					if os.IsNotExist(err) {
						w.notify("file_deleted")
					}
				} else {
					w.scheduleReload(s)
				}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			s.getLogger().WithError(err).Error("config watcher error")
		}
	}
}

// scheduleReload resets the debounce timer so rapid successive events
// coalesce into a single reload
func (w *watcher) scheduleReload(s *Store) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.opts.Debounce, func() {
		w.performReload(s)
	})
}

// performReload reloads the configuration file
func (w *watcher) performReload(s *Store) {
	// Prevent concurrent reloads
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	// Create a timeout context for reload
	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	// Track what changed
	oldValues := s.snapshot()

	// Reload file in a goroutine with timeout
	done := make(chan error, 1)
	go func() {
		done <- s.loadFile(w.filePath)
	}()

	select {
	case err := <-done:
		if err != nil {
			// Reload failed, notify error
			s.getLogger().WithError(err).Error("config reload failed")
			w.notify(fmt.Sprintf("reload_error:%v", err))
			return
		}

		// Compare and notify changes
		newValues := s.snapshot()
		for key, newVal := range newValues {
			if oldVal, existed := oldValues[key]; !existed || !reflect.DeepEqual(oldVal, newVal) {
				w.notify(key)
			}
		}

		// Check for deletions
		for key := range oldValues {
			if _, exists := newValues[key]; !exists {
				w.notify(key)
			}
		}

	case <-ctx.Done():
		// Reload timeout
		w.notify("reload_timeout")
	}
}

// subscribe creates a new subscriber channel
func (w *watcher) subscribe() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Check subscriber limit
	if len(w.subscribers) >= w.opts.MaxWatchers {
		// Return closed channel to prevent resource exhaustion
		ch := make(chan string)
		close(ch)
		return ch
	}

	// Create buffered channel to prevent blocking
	ch := make(chan string, 10)
	id := w.subscriberID.Add(1)
	w.subscribers[id] = ch

	// Cleanup goroutine
	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.subscribers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notify sends a change notification to all subscribers
func (w *watcher) notify(key string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- key:
			// Sent successfully
		default:
			// Channel full, skip to avoid blocking the watch loop
		}
	}
}

// stop terminates the watcher
func (w *watcher) stop() {
	if w.cancel != nil {
		w.cancel()
	}

	// Stop debounce timer
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	// Wait for watch loop to exit with timeout
	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}
