package batch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/drivepath/internal/bulk"
)

// ParseStringOrArray parses a parameter that can be either a single string or an array of strings
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	if s, ok := param.(string); ok {
		if s == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		decoded, isJSON := decodeJSONArray(s)
		if !isJSON {
			return []string{s}, nil
		}
		param = decoded
	}

	items, ok := param.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}

	result := make([]string, 0, len(items))
	for i, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
		}
		if str == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		result = append(result, str)
	}
	return result, nil
}

// ParseMovePairs parses an array of {from, to} objects.
// Missing fields are left empty and reported per item by the executor.
func ParseMovePairs(param any, paramName string) ([]bulk.MovePair, error) {
	var pairs []bulk.MovePair
	if err := decodeObjects(param, paramName, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// ParseOperations parses an array of typed bulk operations.
// Per-variant field validation is left to the executor.
func ParseOperations(param any, paramName string) ([]bulk.Operation, error) {
	var ops []bulk.Operation
	if err := decodeObjects(param, paramName, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// decodeObjects re-decodes an array of JSON objects into out, a pointer to a slice.
func decodeObjects(param any, paramName string, out any) error {
	if param == nil {
		return fmt.Errorf("%s is required", paramName)
	}
	if s, ok := param.(string); ok {
		decoded, isJSON := decodeJSONArray(s)
		if !isJSON {
			return fmt.Errorf("%s must be an array of objects", paramName)
		}
		param = decoded
	}

	items, ok := param.([]any)
	if !ok {
		return fmt.Errorf("%s must be an array of objects", paramName)
	}
	if len(items) == 0 {
		return fmt.Errorf("%s cannot be empty", paramName)
	}
	for i, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return fmt.Errorf("%s[%d] must be an object", paramName, i)
		}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", paramName, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid %s: %w", paramName, err)
	}
	return nil
}

// decodeJSONArray decodes s when it holds a JSON array.
func decodeJSONArray(s string) ([]any, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, false
	}
	return items, true
}
