// Package remote adapts the per-user remote document store. Every entry
// point short-circuits with ErrOffline when connectivity is unavailable;
// callers treat that as a skipped call rather than a failure.
package remote

import (
	"context"
	"errors"
	"reflect"
)

var (
	ErrOffline      = errors.New("offline")
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSession    = errors.New("not signed in")
)

type Document struct {
	ID     string
	Fields map[string]any
}

// Filter restricts a query to documents whose top-level Field equals Value.
// The zero Filter matches every document.
type Filter struct {
	Field string
	Value any
}

func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

func (f Filter) Match(fields map[string]any) bool {
	if f.Field == "" {
		return true
	}
	return reflect.DeepEqual(fields[f.Field], f.Value)
}

type Store interface {
	// Upsert writes a document. A merge write only touches the given
	// fields, and nil-valued fields are never sent.
	Upsert(ctx context.Context, collection, docID string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, collection, docID string) error
	// Get returns (nil, nil) when the document does not exist.
	Get(ctx context.Context, collection, docID string) (*Document, error)
	Query(ctx context.Context, collection string, f Filter) ([]Document, error)
}

// StripNil returns a copy of fields without nil values.
func StripNil(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// IsSkip reports whether err means the call was skipped because the device
// is offline.
func IsSkip(err error) bool {
	return errors.Is(err, ErrOffline)
}
