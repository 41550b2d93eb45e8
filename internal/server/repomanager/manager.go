// Package repomanager picks the storage backend for the server and hands
// out its repositories.
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/scratchmap/internal/server/db"
	"github.com/dmitrijs2005/scratchmap/internal/server/docstore"
	"github.com/dmitrijs2005/scratchmap/internal/server/users"
)

// MemoryDSN selects the in-process backend. Anything after "memory:" is
// ignored.
const MemoryDSN = "memory"

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Users() users.Repository
	Documents() docstore.Repository
	Close()
}

// IsMemoryDSN reports whether dsn selects the in-process backend.
func IsMemoryDSN(dsn string) bool {
	return dsn == MemoryDSN || strings.HasPrefix(dsn, MemoryDSN+":")
}

// New opens the backend named by dsn.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if IsMemoryDSN(dsn) {
		return NewInMemoryRepositoryManager(), nil
	}
	return NewPostgresRepositoryManager(ctx, dsn)
}

type PostgresRepositoryManager struct {
	dsn       string
	db        *db.DB
	users     users.Repository
	documents docstore.Repository
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	conn, err := db.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return newPostgresRepositoryManager(dsn, conn), nil
}

func newPostgresRepositoryManager(dsn string, conn *db.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		dsn:       dsn,
		db:        conn,
		users:     users.NewPostgresRepository(conn),
		documents: docstore.NewPostgresRepository(conn),
	}
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := db.Migrate(ctx, m.dsn); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Users() users.Repository { return m.users }

func (m *PostgresRepositoryManager) Documents() docstore.Repository { return m.documents }

func (m *PostgresRepositoryManager) Close() { m.db.Close() }

// InMemoryRepositoryManager loses everything on exit. It backs local
// development and tests.
type InMemoryRepositoryManager struct {
	users     *users.MemoryRepository
	documents *docstore.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:     users.NewMemoryRepository(),
		documents: docstore.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *InMemoryRepositoryManager) Documents() docstore.Repository { return m.documents }

func (m *InMemoryRepositoryManager) Close() {}
