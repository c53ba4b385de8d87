package config

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// CommaSeparatedSliceHookFunc decodes a string such as "1, 2,3" into a slice of its trimmed, non-empty elements.
// Elements are then decoded into the element type of the target slice.
func CommaSeparatedSliceHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String || t.Kind() != reflect.Slice {
			return data, nil
		}
		parts := strings.Split(reflect.ValueOf(data).String(), ",")
		rv := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				rv = append(rv, part)
			}
		}
		return rv, nil
	}
}

// Unflatten turns dotted keys into nested maps, e.g. {"a.b": "c"} into {"a": {"b": "c"}}, so that they can be
// decoded into nested structs. A key that is both a value and a prefix of another key keeps the nested map.
func Unflatten(values map[string]string) map[string]interface{} {
	rv := make(map[string]interface{})
	for key, value := range values {
		parts := strings.Split(key, ".")
		m := rv
		for _, part := range parts[:len(parts)-1] {
			next, ok := m[part].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				m[part] = next
			}
			m = next
		}
		last := parts[len(parts)-1]
		if _, isMap := m[last].(map[string]interface{}); !isMap {
			m[last] = value
		}
	}
	return rv
}
