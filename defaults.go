// File: dmdaksh/confkit/defaults.go
package confkit

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SetDefaults seeds the store from a tagged struct. Each leaf field is stored
// under its dot-separated key with the field's static type as the type tag,
// so a later Get with the field's type succeeds. The prefix is prepended to
// all keys (e.g. "log."); an empty prefix is allowed.
//
// Field keys come from the store's configured struct tag (default "toml"),
// falling back to the field name. Unexported fields and fields tagged "-"
// are skipped. Nested structs and non-nil struct pointers are walked
// recursively; nil struct pointers are skipped.
func (s *Store) SetDefaults(prefix string, defaults any) error {
	v := reflect.ValueOf(defaults)

	// Handle pointer or direct struct value
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("SetDefaults requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("SetDefaults requires a struct or struct pointer, got %T", defaults)
	}

	s.mutex.RLock()
	tagName := s.tagName
	s.mutex.RUnlock()

	var errs []string
	s.setDefaultFields(v, prefix, "", tagName, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("failed to seed %d default(s): %s", len(errs), strings.Join(errs, "; "))
	}

	return nil
}

// setDefaultFields recursively walks struct fields, storing leaves.
func (s *Store) setDefaultFields(v reflect.Value, pathPrefix, fieldPath, tagName string, errs *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		// Get tag value or use field name
		tag := field.Tag.Get(tagName)
		if tag == "-" {
			continue // Skip this field
		}

		key := field.Name
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				key = parts[0]
			}
			// Tag options like 'omitempty' carry no meaning for defaults.
		}

		// Build full key
		currentKey := key
		if pathPrefix != "" {
			// Ensure trailing dot on prefix if needed
			if !strings.HasSuffix(pathPrefix, ".") {
				pathPrefix += "."
			}
			currentKey = pathPrefix + key
		}

		// Validate key segments
		invalid := false
		for _, segment := range strings.Split(currentKey, ".") {
			if !isValidKeySegment(segment) {
				*errs = append(*errs, fmt.Sprintf("field %s%s: invalid key segment %q in key %q", fieldPath, field.Name, segment, currentKey))
				invalid = true
				break
			}
		}
		if invalid {
			continue
		}

		// Handle nested structs recursively, checking pointer-to-struct too.
		// time.Time is a struct with no exported fields; store it as a leaf.
		fieldType := fieldValue.Type()
		isStruct := fieldValue.Kind() == reflect.Struct && fieldType != reflect.TypeOf(time.Time{})
		isPtrToStruct := fieldValue.Kind() == reflect.Ptr && fieldType.Elem().Kind() == reflect.Struct &&
			fieldType.Elem() != reflect.TypeOf(time.Time{})

		if isStruct || isPtrToStruct {
			nestedValue := fieldValue
			if isPtrToStruct {
				if fieldValue.IsNil() {
					// Skip nil pointers, as their keys aren't well-defined defaults.
					continue
				}
				nestedValue = fieldValue.Elem()
			}

			nestedPrefix := currentKey + "."
			s.setDefaultFields(nestedValue, nestedPrefix, fieldPath+field.Name+".", tagName, errs)
			continue
		}

		// Store leaf fields with the field's static type as the tag
		s.mutex.Lock()
		s.entries[currentKey] = entry{typ: fieldValue.Type(), value: fieldValue.Interface()}
		s.mutex.Unlock()
	}
}
