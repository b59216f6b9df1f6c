package core

import (
	"encoding/json"
	"math"
	"reflect"
)

// KindOf names the runtime kind of a decoded JSON value. Numbers that are not
// integral report "number"; nil reports "null".
func KindOf(v any) string {
	if v == nil {
		return "null"
	}
	switch x := v.(type) {
	case string:
		return string(KindString)
	case bool:
		return string(KindBoolean)
	case map[string]any:
		return string(KindObject)
	case []any:
		return string(KindArray)
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return string(KindInteger)
		}
		return "number"
	}
	if _, ok := AsInt64(v); ok {
		return string(KindInteger)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return string(KindArray)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return string(KindObject)
		}
	case reflect.String:
		return string(KindString)
	case reflect.Bool:
		return string(KindBoolean)
	}
	return rv.Kind().String()
}

// AsInt64 converts integral values (Go integers, json.Number, integral
// floats) to int64.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil {
			return floatToInt(f)
		}
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// AsSlice returns v as a []any, converting typed slices. Non-slices yield nil.
func AsSlice(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// AsMap returns v as a map[string]any, converting typed string-keyed maps.
// Anything else yields nil.
func AsMap(v any) map[string]any {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}

// matchesKind reports whether v has the given kind.
func matchesKind(k Kind, v any) bool {
	switch k {
	case KindInteger:
		_, ok := AsInt64(v)
		return ok
	case KindArray:
		return v != nil && AsSlice(v) != nil
	case KindObject:
		return v != nil && AsMap(v) != nil
	}
	return KindOf(v) == string(k)
}

// valueIn reports whether v equals one of allowed. Integers are compared by
// value so 3, int64(3) and json.Number("3") all match.
func valueIn(v any, allowed []any) bool {
	vi, vIsInt := AsInt64(v)
	for _, a := range allowed {
		if vIsInt {
			if ai, ok := AsInt64(a); ok && ai == vi {
				return true
			}
			continue
		}
		if KindOf(a) == KindOf(v) && reflect.DeepEqual(a, v) {
			return true
		}
	}
	return false
}
