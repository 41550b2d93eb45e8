package docstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/server/db"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*db.DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &db.DB{Pool: mock}, mock
}

func TestPostgresRepository_Upsert(t *testing.T) {
	d, mock := newDB(t)
	defer mock.Close()
	r := NewPostgresRepository(d)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(upsertReplace)).
		WithArgs("u1", "pings", "d1", `{"title":"a"}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Upsert(ctx, "u1", "pings", "d1", map[string]any{"title": "a"}, false))

	mock.ExpectExec(regexp.QuoteMeta(upsertMerge)).
		WithArgs("u1", "pings", "d1", `{}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Upsert(ctx, "u1", "pings", "d1", nil, true))

	mock.ExpectExec(regexp.QuoteMeta(upsertReplace)).
		WithArgs("u1", "pings", "d1", `{}`).
		WillReturnError(errors.New("conn reset"))
	require.Error(t, r.Upsert(ctx, "u1", "pings", "d1", map[string]any{}, false))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Upsert_Unencodable(t *testing.T) {
	d, mock := newDB(t)
	defer mock.Close()
	r := NewPostgresRepository(d)

	err := r.Upsert(context.Background(), "u1", "pings", "d1", map[string]any{"f": func() {}}, false)
	require.ErrorIs(t, err, common.ErrorValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete(t *testing.T) {
	d, mock := newDB(t)
	defer mock.Close()
	r := NewPostgresRepository(d)

	mock.ExpectExec(regexp.QuoteMeta(deleteDoc)).
		WithArgs("u1", "pings", "missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.NoError(t, r.Delete(context.Background(), "u1", "pings", "missing"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get(t *testing.T) {
	d, mock := newDB(t)
	defer mock.Close()
	r := NewPostgresRepository(d)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectDoc)).
		WithArgs("u1", "scratches", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"fields"}).
			AddRow([]byte(`{"userId":"u1","points":[{"lat":1,"lon":2}]}`)))
	doc, err := r.Get(ctx, "u1", "scratches", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.ID)
	assert.Equal(t, []any{map[string]any{"lat": 1.0, "lon": 2.0}}, doc.Fields["points"])

	mock.ExpectQuery(regexp.QuoteMeta(selectDoc)).
		WithArgs("u1", "scratches", "u1").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, "u1", "scratches", "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(selectDoc)).
		WithArgs("u1", "scratches", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"fields"}).AddRow([]byte(`not json`)))
	_, err = r.Get(ctx, "u1", "scratches", "u1")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Query(t *testing.T) {
	d, mock := newDB(t)
	defer mock.Close()
	r := NewPostgresRepository(d)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectWhere)).
		WithArgs("u1", "pings", "userId", `"u1"`).
		WillReturnRows(pgxmock.NewRows([]string{"doc_id", "fields"}).
			AddRow("a", []byte(`{"title":"A"}`)).
			AddRow("b", []byte(`{"title":"B"}`)))
	docs, err := r.Query(ctx, "u1", "pings", Filter{Field: "userId", Value: "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "B", docs[1].Fields["title"])

	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).
		WithArgs("u1", "pings").
		WillReturnRows(pgxmock.NewRows([]string{"doc_id", "fields"}))
	docs, err = r.Query(ctx, "u1", "pings", Filter{})
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).
		WithArgs("u1", "pings").
		WillReturnError(errors.New("boom"))
	_, err = r.Query(ctx, "u1", "pings", Filter{})
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
