// Package shape provides helpers for inspecting and converting generic JSON
// values as they arrive from the messaging channel.
package shape

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrNotConvertible is returned by ToSlice for values that are neither
// slices nor array-like objects.
var ErrNotConvertible = errors.New("shape: value is not convertible to a slice")

// IsObject reports whether v is a JSON object value: a non-nil string-keyed
// map, as opposed to an array, scalar, or null.
func IsObject(v any) bool {
	m, ok := v.(map[string]any)
	return ok && m != nil
}

// ToSlice converts v to a slice. Native slices pass through unchanged.
// Array-like objects — a non-negative integer "length" field plus "0".."n-1"
// indexed keys — are converted in index order, with missing indexes yielding
// nil elements. Anything else fails with ErrNotConvertible.
func ToSlice(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		length, ok := t["length"].(float64)
		if !ok || length < 0 || length != math.Trunc(length) {
			return nil, ErrNotConvertible
		}
		n := int(length)
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = t[strconv.Itoa(i)]
		}
		return out, nil
	default:
		return nil, ErrNotConvertible
	}
}

// DeepClone copies v through a JSON round trip, the closest analog of a
// structured clone for generic values. The result shares no mutable state
// with the input.
func DeepClone(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("shape: clone: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("shape: clone: %w", err)
	}
	return out, nil
}

// ReverseString reverses s rune by rune.
func ReverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
