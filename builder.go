// File: dmdaksh/confkit/builder.go
package confkit

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// ValidatorFunc defines the signature for a function that can validate a Store instance.
// It receives the fully loaded *Store and should return an error if validation fails.
type ValidatorFunc func(s *Store) error

// Builder provides a fluent interface for building configurations
type Builder struct {
	store      *Store
	opts       LoadOptions
	defaults   any
	prefix     string
	file       string
	args       []string
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new configuration builder
func NewBuilder() *Builder {
	return &Builder{
		store:      New(),
		opts:       DefaultLoadOptions(),
		args:       os.Args[1:],
		validators: make([]ValidatorFunc, 0),
	}
}

// WithDefaults sets the struct containing default values
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithPrefix sets the key prefix for default seeding and scanning
func (b *Builder) WithPrefix(prefix string) *Builder {
	b.prefix = prefix
	return b
}

// WithTagName sets the struct tag consulted when seeding and scanning
func (b *Builder) WithTagName(tagName string) *Builder {
	if err := b.store.SetTagName(tagName); err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// WithFileFormat fixes the configuration file format instead of auto-detection
func (b *Builder) WithFileFormat(format string) *Builder {
	if err := b.store.SetFileFormat(format); err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// WithEnvPrefix sets the environment variable prefix
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithFile sets the configuration file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithArgs sets the command-line arguments
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithSources sets the precedence order for configuration sources
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.opts.Sources = sources
	return b
}

// WithEnvTransform sets a custom environment variable transformer
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.opts.EnvTransform = fn
	return b
}

// WithEnvWhitelist limits which keys are checked for env vars
func (b *Builder) WithEnvWhitelist(keys ...string) *Builder {
	if b.opts.EnvWhitelist == nil {
		b.opts.EnvWhitelist = make(map[string]bool)
	}
	for _, key := range keys {
		b.opts.EnvWhitelist[key] = true
	}
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithLogger injects the logger used by the loaders and the file watcher
func (b *Builder) WithLogger(logger *logrus.Logger) *Builder {
	b.store.SetLogger(logger)
	return b
}

// Build creates the Store instance with all specified options
func (b *Builder) Build() (*Store, error) {
	if b.err != nil {
		return nil, b.err
	}

	// Seed defaults if provided
	if b.defaults != nil {
		if err := b.store.SetDefaults(b.prefix, b.defaults); err != nil {
			return nil, fmt.Errorf("failed to seed defaults: %w", err)
		}
	}

	// Load configuration
	loadErr := b.store.LoadWithOptions(b.file, b.args, b.opts)
	if loadErr != nil && !errors.Is(loadErr, ErrConfigNotFound) {
		// Return on fatal load errors. ErrConfigNotFound is not fatal.
		return nil, loadErr
	}

	// Run validators
	for _, validator := range b.validators {
		if err := validator(b.store); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	// ErrConfigNotFound or nil
	return b.store, loadErr
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Store {
	store, err := b.Build()
	if err != nil {
		// Ignore ErrConfigNotFound as it is not a fatal error for MustBuild.
		// The application can proceed with defaults/env vars.
		if !errors.Is(err, ErrConfigNotFound) {
			panic(fmt.Sprintf("config build failed: %v", err))
		}
	}
	return store
}

// BuildAndScan builds and decodes the final configuration into the provided target struct pointer
func (b *Builder) BuildAndScan(target any) error {
	store, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}

	// The prefix used during seeding is the base path for scanning.
	if err := store.Scan(b.prefix, target); err != nil {
		return fmt.Errorf("failed to scan final config into target: %w", err)
	}

	// ErrConfigNotFound or nil
	return err
}
