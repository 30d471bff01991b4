// Package utils converts between typed structs and the untyped documents the
// persistence layer reads and writes.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

func structType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// StructToMap converts a struct into a map keyed by its JSON field names.
// Tags such as omitempty are honoured, so pointer fields left nil are absent
// from the result. Nested structs become nested maps and numbers become
// float64, as with any JSON decoding into map[string]any.
func StructToMap[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr && val.IsNil() {
		return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
	}
	if !structType(val.Type()) {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToMap: failed to marshal input record to JSON: %w", err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, fmt.Errorf("StructToMap: failed to unmarshal JSON to map: %w", err)
	}
	return out, nil
}

// MapToStruct is the inverse of StructToMap. Values that are not JSON
// types, such as time.Time, go through their JSON encoding.
func MapToStruct[T any](input map[string]any) (T, error) {
	var zero T
	if input == nil {
		return zero, fmt.Errorf("MapToStruct: input map cannot be nil")
	}
	if !structType(reflect.TypeOf(zero)) {
		return zero, fmt.Errorf("MapToStruct: generic type T must be a struct type (or pointer to struct), got %T", zero)
	}

	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to marshal input map to JSON: %w", err)
	}
	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}
