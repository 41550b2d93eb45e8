// Package docstore persists schemaless per-user documents grouped in
// collections. Every operation is scoped by the caller's user id.
package docstore

import (
	"context"
)

type Document struct {
	ID     string
	Fields map[string]any
}

// Filter restricts a query to documents whose top-level Field equals
// Value. An empty Field matches everything.
type Filter struct {
	Field string
	Value any
}

type Repository interface {
	// Upsert replaces the document, or with merge overlays fields on the
	// stored one. A missing document is created either way.
	Upsert(ctx context.Context, userID, collection, docID string, fields map[string]any, merge bool) error
	// Delete succeeds when the document does not exist.
	Delete(ctx context.Context, userID, collection, docID string) error
	// Get returns common.ErrorNotFound for a missing document.
	Get(ctx context.Context, userID, collection, docID string) (*Document, error)
	Query(ctx context.Context, userID, collection string, f Filter) ([]Document, error)
}
