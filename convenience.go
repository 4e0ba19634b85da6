// File: dmdaksh/confkit/convenience.go
package confkit

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick creates a fully configured Store instance with a single call
// This is the recommended way to initialize configuration for most applications
func Quick(structDefaults any, envPrefix, configFile string) (*Store, error) {
	store := New()

	// Seed defaults from struct if provided
	if structDefaults != nil {
		if err := store.SetDefaults("", structDefaults); err != nil {
			return nil, fmt.Errorf("failed to seed defaults: %w", err)
		}
	}

	// Load with standard precedence: CLI > Env > File > Default
	opts := DefaultLoadOptions()
	opts.EnvPrefix = envPrefix

	err := store.LoadWithOptions(configFile, os.Args[1:], opts)
	return store, err
}

// QuickCustom creates a Store with custom options
func QuickCustom(structDefaults any, opts LoadOptions, configFile string) (*Store, error) {
	store := NewWithOptions(opts)

	// Seed defaults from struct if provided
	if structDefaults != nil {
		if err := store.SetDefaults("", structDefaults); err != nil {
			return nil, fmt.Errorf("failed to seed defaults: %w", err)
		}
	}

	err := store.LoadWithOptions(configFile, os.Args[1:], opts)
	return store, err
}

// MustQuick is like Quick but panics on error. A missing config file is not
// fatal; the application can proceed with defaults and env vars.
func MustQuick(structDefaults any, envPrefix, configFile string) *Store {
	store, err := Quick(structDefaults, envPrefix, configFile)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return store
}

// GenerateFlags creates flag.FlagSet entries for all existing keys
func (s *Store) GenerateFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for key, e := range s.entries {
		// Create flag based on current value type
		switch v := e.value.(type) {
		case bool:
			fs.Bool(key, v, fmt.Sprintf("Config: %s", key))
		case int64:
			fs.Int64(key, v, fmt.Sprintf("Config: %s", key))
		case int:
			fs.Int(key, v, fmt.Sprintf("Config: %s", key))
		case float64:
			fs.Float64(key, v, fmt.Sprintf("Config: %s", key))
		case string:
			fs.String(key, v, fmt.Sprintf("Config: %s", key))
		default:
			// For other types, use string flag
			fs.String(key, fmt.Sprintf("%v", v), fmt.Sprintf("Config: %s", key))
		}
	}

	return fs
}

// BindFlags updates configuration from parsed flag.FlagSet.
// Only flags that were explicitly set are applied.
func (s *Store) BindFlags(fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		s.SetValue(f.Name, parseValue(f.Value.String()))
	})
}

// Validate checks that all required configuration keys are present
func (s *Store) Validate(required ...string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var missing []string
	for _, key := range required {
		if _, exists := s.entries[key]; !exists {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Debug returns a formatted string showing all configuration values and their type tags
func (s *Store) Debug() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	b.WriteString(fmt.Sprintf("Precedence: %v\n", s.options.Sources))
	b.WriteString("Current values:\n")

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		e := s.entries[key]
		b.WriteString(fmt.Sprintf("  %s: %v (%v)\n", key, e.value, e.typ))
	}

	return b.String()
}

// Dump writes the current configuration to stdout in TOML format
func (s *Store) Dump() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	nestedData := make(map[string]any)
	for key, e := range s.entries {
		setNestedValue(nestedData, key, e.value)
	}

	encoder := toml.NewEncoder(os.Stdout)
	return encoder.Encode(nestedData)
}

// Clone creates a copy of the store's entries and options. The clone shares
// the logger but not the watcher; watching must be started on the clone
// separately if needed.
func (s *Store) Clone() *Store {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	clone := &Store{
		entries:        make(map[string]entry, len(s.entries)),
		options:        s.options,
		tagName:        s.tagName,
		fileFormat:     s.fileFormat,
		configFilePath: s.configFilePath,
		logger:         s.logger,
	}

	for key, e := range s.entries {
		clone.entries[key] = e
	}

	return clone
}
