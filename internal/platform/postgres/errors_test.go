package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/lingdou-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: foreignKeyViolationCode}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
		{"unmapped", other, other},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tc.err), tc.want)
		})
	}

	assert.NoError(t, MapError(nil))
}

func TestMapNotFound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, store.ErrProductNotFound, mapNotFound(sql.ErrNoRows, store.ErrProductNotFound))
	assert.ErrorIs(t, mapNotFound(&pgconn.PgError{Code: uniqueViolationCode}, store.ErrProductNotFound), store.ErrDuplicate)
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrUpdateFailed))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrUpdateFailed), store.ErrUpdateFailed)
	assert.Error(t, CheckRowsAffected(nil, store.ErrUpdateFailed))
}
