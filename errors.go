// File: dmdaksh/confkit/errors.go
package confkit

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for use with errors.Is. The typed errors below carry the
// key and type details and match these sentinels through their Is methods.
var (
	// ErrKeyNotFound is returned by typed reads of a key that was never set
	// (or has since been removed).
	ErrKeyNotFound = errors.New("key not found")

	// ErrTypeMismatch is returned by typed reads when the key exists but was
	// stored with a different type than the one requested.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrConfigNotFound indicates the configuration file does not exist.
	// Loading treats this as non-fatal so applications can run on defaults.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrCLIParse indicates command-line arguments could not be parsed.
	ErrCLIParse = errors.New("CLI parse error")
)

// KeyNotFoundError reports a typed read of an absent key.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// TypeMismatchError reports a typed read whose requested type does not equal
// the type captured when the key was last set. Matching is exact: no numeric
// widening, no interface satisfaction.
type TypeMismatchError struct {
	Key       string
	Requested reflect.Type
	Stored    reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for key %q: requested %v, stored %v", e.Key, e.Requested, e.Stored)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
