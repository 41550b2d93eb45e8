// Package store is the client's local persistent key/value store. Every
// collection is saved as one JSON value under a fixed key, so a save always
// overwrites the whole collection in a single atomic write.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

// Keys of the persisted values.
const (
	KeyDiscoveries            = "discoveries"
	KeyScratchedPoints        = "scratchedPoints"
	KeyPendingActionDiscovery = "pendingActionDiscovery"
	KeyPendingScratch         = "pendingScratch"
	KeyLastKnownPoint         = "lastKnownPoint"
	KeyShaderEnabled          = "shaderEnabled"
	KeySession                = "session"
)

const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Store persists opaque values by key. It does no concurrency control of
// its own beyond making a single Save atomic; see Collections.
type Store interface {
	// Save overwrites the value stored under key.
	Save(ctx context.Context, key string, value []byte) error
	// Load returns (nil, nil) when key is absent.
	Load(ctx context.Context, key string) ([]byte, error)
	// Remove deletes key; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open creates the backend named by backend inside dataDir.
func Open(ctx context.Context, backend, dataDir string, l logging.Logger) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		path := filepath.Join(dataDir, "scratchmap.db")
		l.Debug(ctx, "opening local store", "backend", BackendSQLite, "path", path)
		return OpenSQLite(ctx, path)
	case BackendBolt:
		path := filepath.Join(dataDir, "scratchmap.bolt")
		l.Debug(ctx, "opening local store", "backend", BackendBolt, "path", path)
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
