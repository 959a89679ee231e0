package common

import (
	"fmt"
	"math"
)

// OptionalInt64 reads a numeric argument. A missing or null argument
// yields nil. JSON numbers arrive as float64 and must be whole.
func OptionalInt64(args map[string]any, name string) (*int64, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}

	var n int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%s must be an integer", name)
		}
		n = int64(v)
	case int:
		n = int64(v)
	case int64:
		n = v
	default:
		return nil, fmt.Errorf("%s must be a number", name)
	}
	if n < 0 {
		return nil, fmt.Errorf("%s must not be negative", name)
	}
	return &n, nil
}

// OptionalInt reads a numeric argument, falling back to def.
func OptionalInt(args map[string]any, name string, def int) (int, error) {
	n, err := OptionalInt64(args, name)
	if err != nil || n == nil {
		return def, err
	}
	return int(*n), nil
}
