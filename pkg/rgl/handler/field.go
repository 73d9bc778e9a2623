package handler

import (
	"reflect"
	"strings"
)

// LookupField extracts a value from facts using dot notation
// (for example "order.customer.tier"). Nested maps of any string-keyed type
// are traversed. It reports false when any segment is missing.
func LookupField(facts map[string]any, path string) (any, bool) {
	if path == "" || facts == nil {
		return nil, false
	}

	// An exact key wins over a dotted traversal.
	if v, ok := facts[path]; ok {
		return v, true
	}

	var current any = facts
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, false
		}
		next, ok := lookupKey(current, part)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func lookupKey(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		val, ok := m[key]
		return val, ok
	case map[string]string:
		val, ok := m[key]
		return val, ok
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}
