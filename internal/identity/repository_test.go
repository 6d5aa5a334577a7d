package identity

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "email", "password_hash", "birthday", "created_at"}

func TestPostgresCreate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	birthday := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := User{ID: id.String(), Email: "walker@example.com", PasswordHash: []byte("hash"), Birthday: birthday, CreatedAt: at}

	t.Run("inserted", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
			WithArgs(id, "walker@example.com", []byte("hash"), birthday, at).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewPostgresRepository(mock).Create(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
			WithArgs(id, "walker@example.com", []byte("hash"), birthday, at).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "visitor_accounts_email_key"})

		err = NewPostgresRepository(mock).Create(context.Background(), user)
		require.ErrorIs(t, err, ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other failure", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
			WithArgs(id, "walker@example.com", []byte("hash"), birthday, at).
			WillReturnError(assert.AnError)

		err = NewPostgresRepository(mock).Create(context.Background(), user)
		require.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, ErrEmailTaken)
	})
}

func TestPostgresFind(t *testing.T) {
	t.Parallel()

	t.Run("by email", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		birthday := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
		at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(regexp.QuoteMeta(userByEmailQuery)).WithArgs("walker@example.com").WillReturnRows(
			pgxmock.NewRows(userColumns).AddRow(id, "walker@example.com", []byte("hash"), birthday, at),
		)

		user, err := NewPostgresRepository(mock).FindByEmail(context.Background(), "walker@example.com")
		require.NoError(t, err)
		assert.Equal(t, id.String(), user.ID)
		assert.Equal(t, []byte("hash"), user.PasswordHash)
		assert.Equal(t, "1990-04-12", user.Profile().Birthday)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta(userByEmailQuery)).WithArgs("nobody@example.com").WillReturnError(pgx.ErrNoRows)

		_, err = NewPostgresRepository(mock).FindByEmail(context.Background(), "nobody@example.com")
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = NewPostgresRepository(mock).FindByID(context.Background(), "admin")
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
