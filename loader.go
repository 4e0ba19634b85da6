// File: dmdaksh/confkit/loader.go
package confkit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Source represents a configuration source, used to define load precedence
type Source string

const (
	// SourceDefault represents values seeded with Set/SetValue/SetDefaults
	SourceDefault Source = "default"
	// SourceFile represents values loaded from a configuration file
	SourceFile Source = "file"
	// SourceEnv represents values loaded from environment variables
	SourceEnv Source = "env"
	// SourceCLI represents values loaded from command-line arguments
	SourceCLI Source = "cli"
)

// EnvTransformFunc converts a configuration key to an environment variable name
type EnvTransformFunc func(key string) string

// LoadOptions configures how configuration is loaded from multiple sources
type LoadOptions struct {
	// Sources defines the precedence order (first = highest priority).
	// Sources are applied lowest-priority first; each write overwrites the
	// previous one, so the last (highest) source applied wins.
	// Default: [SourceCLI, SourceEnv, SourceFile, SourceDefault]
	Sources []Source

	// EnvPrefix is prepended to environment variable names
	// Example: "MYAPP_" transforms "server.port" to "MYAPP_SERVER_PORT"
	EnvPrefix string

	// EnvTransform customizes how keys map to environment variables
	// If nil, uses default transformation (dots to underscores, uppercase)
	EnvTransform EnvTransformFunc

	// EnvWhitelist limits which keys are checked for env vars (nil = all)
	EnvWhitelist map[string]bool
}

// DefaultLoadOptions returns the standard load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sources: []Source{SourceCLI, SourceEnv, SourceFile, SourceDefault},
	}
}

// Load reads configuration from a file and merges overrides from command-line
// arguments using the store's current load options.
func (s *Store) Load(filePath string, args []string) error {
	s.mutex.RLock()
	opts := s.options
	s.mutex.RUnlock()

	return s.LoadWithOptions(filePath, args, opts)
}

// LoadWithOptions loads configuration from multiple sources with custom options
func (s *Store) LoadWithOptions(filePath string, args []string, opts LoadOptions) error {
	s.mutex.Lock()
	s.options = opts
	s.mutex.Unlock()

	var loadErrors []error

	// Process each source according to precedence (in reverse order for proper layering)
	for i := len(opts.Sources) - 1; i >= 0; i-- {
		source := opts.Sources[i]

		switch source {
		case SourceDefault:
			// Defaults are already in place from Set/SetDefaults calls
			continue

		case SourceFile:
			if filePath != "" {
				if err := s.loadFile(filePath); err != nil {
					if errors.Is(err, ErrConfigNotFound) {
						loadErrors = append(loadErrors, err)
					} else {
						return err // Fatal error
					}
				}
			}

		case SourceEnv:
			if err := s.loadEnv(opts); err != nil {
				loadErrors = append(loadErrors, err)
			}

		case SourceCLI:
			if len(args) > 0 {
				if err := s.loadCLI(args); err != nil {
					loadErrors = append(loadErrors, err)
				}
			}
		}
	}

	return errors.Join(loadErrors...)
}

// LoadEnv loads configuration values from environment variables
func (s *Store) LoadEnv(prefix string) error {
	s.mutex.RLock()
	opts := s.options
	s.mutex.RUnlock()

	opts.EnvPrefix = prefix
	return s.loadEnv(opts)
}

// LoadCLI loads configuration values from command-line arguments
func (s *Store) LoadCLI(args []string) error {
	return s.loadCLI(args)
}

// LoadFile loads configuration values from a TOML, JSON, or YAML file
func (s *Store) LoadFile(filePath string) error {
	return s.loadFile(filePath)
}

// loadFile reads and parses a configuration file, storing every leaf value
// under its dot-separated key
func (s *Store) loadFile(path string) error {
	fileData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	s.mutex.RLock()
	format := s.fileFormat
	tagName := s.tagName
	s.mutex.RUnlock()

	// Determine format
	if format == "" || format == "auto" {
		// Try extension first
		format = detectFileFormat(path)
		if format == "" {
			// Fall back to content detection
			format = detectFormatFromContent(fileData)
			if format == "" {
				// Last resort: use tagName as hint
				format = tagName
			}
		}
	}

	// Parse based on detected/specified format
	fileConfig := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(fileData, &fileConfig); err != nil {
			return fmt.Errorf("failed to parse TOML config file '%s': %w", path, err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(fileData))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&fileConfig); err != nil {
			return fmt.Errorf("failed to parse JSON config file '%s': %w", path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(fileData, &fileConfig); err != nil {
			return fmt.Errorf("failed to parse YAML config file '%s': %w", path, err)
		}
	default:
		return fmt.Errorf("unable to determine config format for file '%s'", path)
	}

	// Flatten nested tables to dot-separated keys and apply atomically
	flattened := flattenMap(fileConfig, "")

	s.mutex.Lock()
	s.configFilePath = path
	for key, value := range flattened {
		s.entries[key] = entry{typ: reflect.TypeOf(value), value: value}
	}
	s.mutex.Unlock()

	s.getLogger().WithFields(logrus.Fields{
		"path":   path,
		"format": format,
		"keys":   len(flattened),
	}).Debug("configuration file loaded")

	return nil
}

// loadEnv loads configuration from environment variables. The keys already
// present in the store define which variables are looked up, so defaults
// seeded before loading determine the env key universe.
func (s *Store) loadEnv(opts LoadOptions) error {
	transform := opts.EnvTransform
	if transform == nil {
		transform = defaultEnvTransform(opts.EnvPrefix)
	}

	// -- 1. Collect candidate keys (Read-Lock)
	s.mutex.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mutex.RUnlock()

	// -- 2. Look up env vars (No Lock)
	found := make(map[string]any)
	for _, key := range keys {
		if opts.EnvWhitelist != nil && !opts.EnvWhitelist[key] {
			continue
		}

		envVar := transform(key)
		if value, exists := os.LookupEnv(envVar); exists {
			found[key] = parseValue(value)
		}
	}

	// If no relevant env vars were found, we are done.
	if len(found) == 0 {
		return nil
	}

	// -- 3. Atomically update the store (Write-Lock)
	s.mutex.Lock()
	for key, value := range found {
		s.entries[key] = entry{typ: reflect.TypeOf(value), value: value}
	}
	s.mutex.Unlock()

	s.getLogger().WithField("count", len(found)).Debug("environment variables loaded")

	return nil
}

// loadCLI loads configuration from command-line arguments
func (s *Store) loadCLI(args []string) error {
	// -- 1. Parse arguments (No Lock)
	parsedCLI, err := parseArgs(args)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCLIParse, err)
	}

	flattened := flattenMap(parsedCLI, "")
	if len(flattened) == 0 {
		return nil // No CLI args to process.
	}

	// -- 2. Atomically update the store (Write-Lock)
	s.mutex.Lock()
	for key, value := range flattened {
		s.entries[key] = entry{typ: reflect.TypeOf(value), value: value}
	}
	s.mutex.Unlock()

	s.getLogger().WithField("count", len(flattened)).Debug("command-line arguments loaded")

	return nil
}

// DiscoverEnv finds all environment variables matching existing keys
// and returns a map of key -> env var name for found variables
func (s *Store) DiscoverEnv(prefix string) map[string]string {
	s.mutex.RLock()
	transform := s.options.EnvTransform
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mutex.RUnlock()

	if transform == nil {
		transform = defaultEnvTransform(prefix)
	}

	discovered := make(map[string]string)
	for _, key := range keys {
		envVar := transform(key)
		if _, exists := os.LookupEnv(envVar); exists {
			discovered[key] = envVar
		}
	}

	return discovered
}

// defaultEnvTransform creates the default environment variable transformer
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(key string) string {
		env := strings.ReplaceAll(key, ".", "_")
		env = strings.ToUpper(env)
		if prefix != "" {
			env = prefix + env
		}
		return env
	}
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".conf", ".config":
		// Try to detect from content
		return ""
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	// Try YAML (superset of JSON, so check after JSON)
	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	// Try TOML last
	var tomlTest any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	return ""
}
