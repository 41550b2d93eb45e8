package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/server/db"
	"github.com/jackc/pgx/v5"
)

const (
	upsertReplace = `INSERT INTO documents (user_id, collection, doc_id, fields) VALUES ($1, $2, $3, $4::jsonb)
ON CONFLICT (user_id, collection, doc_id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()`

	upsertMerge = `INSERT INTO documents (user_id, collection, doc_id, fields) VALUES ($1, $2, $3, $4::jsonb)
ON CONFLICT (user_id, collection, doc_id) DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_at = now()`

	deleteDoc = `DELETE FROM documents WHERE user_id = $1 AND collection = $2 AND doc_id = $3`

	selectDoc = `SELECT fields FROM documents WHERE user_id = $1 AND collection = $2 AND doc_id = $3`

	selectAll = `SELECT doc_id, fields FROM documents WHERE user_id = $1 AND collection = $2 ORDER BY doc_id`

	selectWhere = `SELECT doc_id, fields FROM documents WHERE user_id = $1 AND collection = $2 AND fields -> $3 = $4::jsonb ORDER BY doc_id`
)

type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID, collection, docID string, fields map[string]any, merge bool) error {
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: fields: %v", common.ErrorValidation, err)
	}

	query := upsertReplace
	if merge {
		query = upsertMerge
	}
	if _, err := r.db.Pool.Exec(ctx, query, userID, collection, docID, string(b)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, collection, docID string) error {
	if _, err := r.db.Pool.Exec(ctx, deleteDoc, userID, collection, docID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, collection, docID string) (*Document, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx, selectDoc, userID, collection, docID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	return &Document{ID: docID, Fields: fields}, nil
}

func (r *PostgresRepository) Query(ctx context.Context, userID, collection string, f Filter) ([]Document, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if f.Field == "" {
		rows, err = r.db.Pool.Query(ctx, selectAll, userID, collection)
	} else {
		value, merr := json.Marshal(f.Value)
		if merr != nil {
			return nil, fmt.Errorf("%w: filter value: %v", common.ErrorValidation, merr)
		}
		rows, err = r.db.Pool.Query(ctx, selectWhere, userID, collection, f.Field, string(value))
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return docs, nil
}

func decodeFields(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}
