// File: dmdaksh/confkit/store.go
package confkit

import (
	"fmt"
	"io"
	"reflect"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// entry holds one stored value together with the type identity captured when
// it was written. The two are set together and never mutated independently.
type entry struct {
	typ   reflect.Type
	value any
}

// Store is a thread-safe mapping from string keys to values of arbitrary
// type. Each value carries a type tag captured at write time; typed reads
// compare the tag against the requested type and fail with TypeMismatchError
// rather than attempting an unchecked conversion.
//
// Keys are free-form strings. Loaders and the struct helpers use
// dot-separated paths (e.g. "server.port") so entries can round-trip through
// nested file formats, but the store itself imposes no key syntax.
type Store struct {
	mutex   sync.RWMutex
	entries map[string]entry

	options        LoadOptions
	tagName        string
	fileFormat     string
	configFilePath string
	logger         *logrus.Logger
	watcher        *watcher
}

// New creates an empty Store with default load options. The store logs to a
// discarded output until a logger is injected with SetLogger or the builder's
// WithLogger.
func New() *Store {
	return NewWithOptions(DefaultLoadOptions())
}

// NewWithOptions creates an empty Store with custom load options.
func NewWithOptions(opts LoadOptions) *Store {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Store{
		entries:    make(map[string]entry),
		options:    opts,
		tagName:    "toml",
		fileFormat: "auto",
		logger:     logger,
	}
}

// Set stores value under key, replacing any prior entry regardless of its
// type. The type tag is the type parameter T, captured statically at the
// call site. Last write wins for both value and type.
func Set[T any](s *Store, key string, value T) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[key] = entry{typ: reflect.TypeOf((*T)(nil)).Elem(), value: value}
}

// Get returns the value stored under key, typed as T.
//
// It fails with *KeyNotFoundError when the key is absent and with
// *TypeMismatchError when the key exists but was stored with a type other
// than T. The tag comparison is exact: a value stored as int is not
// retrievable as int64, and vice versa. Failed reads have no side effects.
func Get[T any](s *Store, key string) (T, error) {
	var zero T

	s.mutex.RLock()
	e, ok := s.entries[key]
	s.mutex.RUnlock()

	if !ok {
		return zero, &KeyNotFoundError{Key: key}
	}

	requested := reflect.TypeOf((*T)(nil)).Elem()
	if e.typ != requested {
		return zero, &TypeMismatchError{Key: key, Requested: requested, Stored: e.typ}
	}

	if e.value == nil {
		return zero, nil
	}
	return e.value.(T), nil
}

// GetOrDefault returns the value stored under key, or defaultValue when the
// key is absent. When the key is present it behaves exactly like Get,
// including failing with *TypeMismatchError when the stored type differs
// from T; presence does not bypass the type check.
func GetOrDefault[T any](s *Store, key string, defaultValue T) (T, error) {
	s.mutex.RLock()
	_, ok := s.entries[key]
	s.mutex.RUnlock()

	if !ok {
		return defaultValue, nil
	}
	return Get[T](s, key)
}

// SetValue stores value under key with the value's dynamic type as the tag.
// It is the untyped counterpart of Set, used by the file/env/CLI loaders
// where the static type is not known at compile time.
func (s *Store) SetValue(key string, value any) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[key] = entry{typ: reflect.TypeOf(value), value: value}
}

// Has reports whether key is currently present, regardless of stored type.
func (s *Store) Has(key string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, ok := s.entries[key]
	return ok
}

// Remove deletes the entry for key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.entries, key)
}

// Value returns the raw stored value without a type check. The second return
// reports presence. The coercing getters (String, Int64, Bool, Float64) and
// Scan build on this.
func (s *Store) Value(key string) (any, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// TypeOf returns the type tag captured when key was last set.
func (s *Store) TypeOf(key string) (reflect.Type, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.typ, true
}

// Keys returns all present keys in sorted order.
func (s *Store) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// SetLogger injects the logger used by the loaders and the file watcher.
// Passing nil restores the discarded default.
func (s *Store) SetLogger(logger *logrus.Logger) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	s.logger = logger
}

// SetLoadOptions replaces the store's load options used by Load and LoadEnv.
func (s *Store) SetLoadOptions(opts LoadOptions) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.options = opts
}

// SetTagName sets the struct tag consulted by SetDefaults and Scan.
// Supported tag names are "toml", "json", and "yaml".
func (s *Store) SetTagName(tagName string) error {
	switch tagName {
	case "toml", "json", "yaml":
	default:
		return fmt.Errorf("unsupported tag name %q (supported: toml, json, yaml)", tagName)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tagName = tagName
	return nil
}

// SetFileFormat fixes the format used when loading configuration files.
// "auto" (the default) detects from the file extension, then the content.
func (s *Store) SetFileFormat(format string) error {
	switch format {
	case "auto", "toml", "json", "yaml":
	default:
		return fmt.Errorf("unsupported file format %q (supported: auto, toml, json, yaml)", format)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.fileFormat = format
	return nil
}

// snapshot returns a copy of the current key/value state.
func (s *Store) snapshot() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap := make(map[string]any, len(s.entries))
	for k, e := range s.entries {
		snap[k] = e.value
	}
	return snap
}

// getLogger returns the injected logger.
func (s *Store) getLogger() *logrus.Logger {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.logger
}
