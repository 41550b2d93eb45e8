package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedRecord is wrapped by every parse failure.
var ErrMalformedRecord = errors.New("malformed record")

func malformed(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedRecord, field, fmt.Sprintf(format, args...))
}

func requiredString(f map[string]any, key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", malformed(key, "missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed(key, "want string, got %T", v)
	}
	if s == "" {
		return "", malformed(key, "empty")
	}
	return s, nil
}

func optionalString(f map[string]any, key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed(key, "want string, got %T", v)
	}
	return s, nil
}

func requiredNumber(f map[string]any, key string) (float64, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, malformed(key, "missing")
	}

	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		var err error
		if n, err = x.Float64(); err != nil {
			return 0, malformed(key, "not a number")
		}
	default:
		return 0, malformed(key, "want number, got %T", v)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, malformed(key, "not finite")
	}
	return n, nil
}
