// File: dmdaksh/confkit/watch_test.go
package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	watchWait = 5 * time.Second
	watchTick = 10 * time.Millisecond
)

// newWatchedStore writes an initial config file, loads it, and starts a
// watcher with a short debounce suitable for tests.
func newWatchedStore(t *testing.T, content string) (*Store, string) {
	t.Helper()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "watched.toml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	store := New()
	require.NoError(t, store.LoadFile(configFile))
	require.NoError(t, store.AutoUpdateWithOptions(WatchOptions{Debounce: 50 * time.Millisecond}))
	t.Cleanup(store.StopAutoUpdate)

	require.Eventually(t, store.IsWatching, watchWait, watchTick, "watcher should start")
	return store, configFile
}

// waitForNotification reads from ch until match returns true or the timeout expires
func waitForNotification(t *testing.T, ch <-chan string, match func(string) bool) string {
	t.Helper()

	deadline := time.After(watchWait)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatal("watch channel closed before the expected notification")
			}
			if match(msg) {
				return msg
			}
		case <-deadline:
			t.Fatal("timed out waiting for notification")
		}
	}
}

// TestAutoUpdateReload tests reload on in-place file modification
func TestAutoUpdateReload(t *testing.T) {
	store, configFile := newWatchedStore(t, "key = \"initial\"\nport = 8080\n")

	ch := store.Watch()

	require.NoError(t, os.WriteFile(configFile, []byte("key = \"changed\"\nport = 8080\n"), 0644))

	got := waitForNotification(t, ch, func(msg string) bool { return msg == "key" })
	assert.Equal(t, "key", got)

	v, err := Get[string](store, "key")
	require.NoError(t, err)
	assert.Equal(t, "changed", v)

	// Unchanged keys keep their values
	port, err := Get[int64](store, "port")
	require.NoError(t, err)
	assert.Equal(t, int64(8080), port)
}

// TestAutoUpdateAtomicRename tests reload when the file is replaced via
// temp-file-and-rename, the way Save and most editors write
func TestAutoUpdateAtomicRename(t *testing.T) {
	store, configFile := newWatchedStore(t, "key = \"initial\"\n")

	ch := store.Watch()

	tempPath := configFile + ".swap"
	require.NoError(t, os.WriteFile(tempPath, []byte("key = \"renamed\"\n"), 0644))
	require.NoError(t, os.Rename(tempPath, configFile))

	waitForNotification(t, ch, func(msg string) bool { return msg == "key" })

	v, err := Get[string](store, "key")
	require.NoError(t, err)
	assert.Equal(t, "renamed", v)
}

// TestWatchNotifiesEachChangedKey tests per-key notifications including additions
func TestWatchNotifiesEachChangedKey(t *testing.T) {
	store, configFile := newWatchedStore(t, "alpha = 1\nbeta = 2\n")

	ch := store.Watch()

	// alpha changes, beta stays, gamma appears
	require.NoError(t, os.WriteFile(configFile, []byte("alpha = 10\nbeta = 2\ngamma = 3\n"), 0644))

	seen := make(map[string]bool)
	waitForNotification(t, ch, func(msg string) bool {
		seen[msg] = true
		return seen["alpha"] && seen["gamma"]
	})

	assert.False(t, seen["beta"], "unchanged keys must not be announced")

	alpha, err := Get[int64](store, "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(10), alpha)
}

// TestWatchWithoutFile tests the closed-channel contract when nothing is loaded
func TestWatchWithoutFile(t *testing.T) {
	store := New()

	ch := store.Watch()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel should be closed, not blocking")
	}

	assert.NoError(t, store.AutoUpdate(), "AutoUpdate without a file is a no-op")
	assert.False(t, store.IsWatching())
}

// TestFileDeletedNotification tests the deletion marker
func TestFileDeletedNotification(t *testing.T) {
	store, configFile := newWatchedStore(t, "key = 1\n")

	ch := store.Watch()

	require.NoError(t, os.Remove(configFile))

	got := waitForNotification(t, ch, func(msg string) bool { return msg == "file_deleted" })
	assert.Equal(t, "file_deleted", got)

	// Values loaded before deletion stay available
	v, err := Get[int64](store, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

// TestReloadErrorNotification tests the error marker when the new content is unparsable
func TestReloadErrorNotification(t *testing.T) {
	store, configFile := newWatchedStore(t, "key = \"good\"\n")

	ch := store.Watch()

	require.NoError(t, os.WriteFile(configFile, []byte("= broken ["), 0644))

	got := waitForNotification(t, ch, func(msg string) bool {
		return strings.HasPrefix(msg, "reload_error:")
	})
	assert.True(t, strings.HasPrefix(got, "reload_error:"))

	// The failed reload must not disturb current values
	v, err := Get[string](store, "key")
	require.NoError(t, err)
	assert.Equal(t, "good", v)
}

// TestDebounceCoalescing tests that rapid writes collapse into one reload
func TestDebounceCoalescing(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "watched.toml")
	require.NoError(t, os.WriteFile(configFile, []byte("counter = 0\n"), 0644))

	store := New()
	require.NoError(t, store.LoadFile(configFile))
	require.NoError(t, store.AutoUpdateWithOptions(WatchOptions{Debounce: 250 * time.Millisecond}))
	t.Cleanup(store.StopAutoUpdate)
	require.Eventually(t, store.IsWatching, watchWait, watchTick)

	ch := store.Watch()

	// Burst of writes well inside one debounce window
	for i := 1; i <= 5; i++ {
		require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf("counter = %d\n", i)), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	waitForNotification(t, ch, func(msg string) bool { return msg == "counter" })

	// Only the final write is observed
	counter, err := Get[int64](store, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(5), counter)

	// No further reload is pending
	select {
	case msg, ok := <-ch:
		if ok {
			t.Fatalf("unexpected second notification %q", msg)
		}
	case <-time.After(600 * time.Millisecond):
	}
}

// TestMaxWatchers tests the subscriber cap
func TestMaxWatchers(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "watched.toml")
	require.NoError(t, os.WriteFile(configFile, []byte("key = 1\n"), 0644))

	store := New()
	require.NoError(t, store.LoadFile(configFile))
	require.NoError(t, store.AutoUpdateWithOptions(WatchOptions{
		Debounce:    50 * time.Millisecond,
		MaxWatchers: 2,
	}))
	t.Cleanup(store.StopAutoUpdate)
	require.Eventually(t, store.IsWatching, watchWait, watchTick)

	ch1 := store.Watch()
	ch2 := store.Watch()
	assert.Equal(t, 2, store.WatcherCount())

	// The cap is enforced by handing out a closed channel
	ch3 := store.Watch()
	select {
	case _, ok := <-ch3:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("over-limit channel should be closed, not blocking")
	}
	assert.Equal(t, 2, store.WatcherCount())

	_, _ = ch1, ch2
}

// TestStopAutoUpdate tests watcher shutdown and channel cleanup
func TestStopAutoUpdate(t *testing.T) {
	store, _ := newWatchedStore(t, "key = 1\n")

	ch := store.Watch()
	require.Equal(t, 1, store.WatcherCount())

	store.StopAutoUpdate()

	assert.False(t, store.IsWatching())
	assert.Equal(t, 0, store.WatcherCount())

	// Subscriber channels close on shutdown
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, watchWait, watchTick, "subscriber channel should be closed")

	// Stopping twice is harmless
	assert.NotPanics(t, store.StopAutoUpdate)
}

// TestAutoUpdateIdempotent tests repeated watch requests for the same file
func TestAutoUpdateIdempotent(t *testing.T) {
	store, _ := newWatchedStore(t, "key = 1\n")

	require.NoError(t, store.AutoUpdate())
	require.NoError(t, store.AutoUpdate())
	assert.True(t, store.IsWatching())
}

// TestWatchFile tests switching the watched file
func TestWatchFile(t *testing.T) {
	tmpDir := t.TempDir()

	fileA := filepath.Join(tmpDir, "a.toml")
	require.NoError(t, os.WriteFile(fileA, []byte("origin = \"a\"\n"), 0644))
	fileB := filepath.Join(tmpDir, "b.toml")
	require.NoError(t, os.WriteFile(fileB, []byte("origin = \"b\"\nextra = true\n"), 0644))

	store := New()
	require.NoError(t, store.LoadFile(fileA))
	require.NoError(t, store.AutoUpdateWithOptions(WatchOptions{Debounce: 50 * time.Millisecond}))
	t.Cleanup(store.StopAutoUpdate)
	require.Eventually(t, store.IsWatching, watchWait, watchTick)

	require.NoError(t, store.WatchFile(fileB))
	require.Eventually(t, store.IsWatching, watchWait, watchTick, "watcher should move to the new file")

	origin, err := Get[string](store, "origin")
	require.NoError(t, err)
	assert.Equal(t, "b", origin)

	// Changes to the new file are picked up
	ch := store.Watch()
	require.NoError(t, os.WriteFile(fileB, []byte("origin = \"b2\"\nextra = true\n"), 0644))
	waitForNotification(t, ch, func(msg string) bool { return msg == "origin" })

	origin, err = Get[string](store, "origin")
	require.NoError(t, err)
	assert.Equal(t, "b2", origin)

	t.Run("FormatHint", func(t *testing.T) {
		fileC := filepath.Join(tmpDir, "c.conf")
		require.NoError(t, os.WriteFile(fileC, []byte("origin = \"c\"\n"), 0644))

		require.NoError(t, store.WatchFile(fileC, "toml"))

		origin, err := Get[string](store, "origin")
		require.NoError(t, err)
		assert.Equal(t, "c", origin)
	})

	t.Run("InvalidFormatHint", func(t *testing.T) {
		err := store.WatchFile(fileB, "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format hint")
	})
}
