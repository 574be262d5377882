package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vaultmerge/vaultmerge/internal/server/models"
	"github.com/vaultmerge/vaultmerge/internal/vaulterrors"
)

func newMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return mock, db
}

func TestPostgresUserRepository_Create_Success(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*salt,\s*verifier\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "alice", []byte("salt"), []byte("verifier")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{UserName: "alice", Salt: []byte("salt"), Verifier: []byte("verifier")}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	require.Equal(t, "alice", got.UserName)
	require.NotEmpty(t, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_Create_DBError(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	q := `(?s)^INSERT\s+INTO\s+users`
	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "alice", []byte("salt"), []byte("verifier")).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Salt: []byte("salt"), Verifier: []byte("verifier")})
	require.ErrorContains(t, err, "db down")
}

func TestPostgresUserRepository_GetUserByLogin_Found(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	q := `(?s)^SELECT\s+id,\s*username,\s*salt,\s*verifier\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	rows := sqlmock.NewRows([]string{"id", "username", "salt", "verifier"}).
		AddRow("u-1", "alice", []byte("salt"), []byte("verifier"))
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "u-1", got.ID)
	require.Equal(t, "alice", got.UserName)
}

func TestPostgresUserRepository_GetUserByLogin_NotFound(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	q := `(?s)^SELECT\s+id,\s*username,\s*salt,\s*verifier\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	require.ErrorIs(t, err, vaulterrors.ErrNotFound)
}

func TestPostgresUserRepository_GetUserByLogin_DBError(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	q := `(?s)^SELECT\s+id,\s*username,\s*salt,\s*verifier\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("alice").WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	require.ErrorContains(t, err, "db err")
}

func TestPostgresRefreshTokenRepository_Create(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresRefreshTokenRepository(db)

	q := `(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(token,\s*user_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*now\(\)\s*\+\s*make_interval\(secs\s*=>\s*\$3\)\)\s*$`
	mock.ExpectExec(q).
		WithArgs("tok-1", "u-1", int64(3600)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), "u-1", "tok-1", 3600)
	require.NoError(t, err)
}

func TestPostgresRefreshTokenRepository_Create_DBError(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresRefreshTokenRepository(db)

	q := `(?s)^INSERT\s+INTO\s+refresh_tokens`
	mock.ExpectExec(q).
		WithArgs("tok-1", "u-1", int64(60)).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), "u-1", "tok-1", 60)
	require.ErrorContains(t, err, "db down")
}

func TestPostgresRefreshTokenRepository_Find_Found(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresRefreshTokenRepository(db)

	q := `(?s)^SELECT\s+token,\s*user_id,\s*expires_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	expires := time.Now().Add(time.Hour)
	rows := sqlmock.NewRows([]string{"token", "user_id", "expires_at"}).AddRow("tok-1", "u-1", expires)
	mock.ExpectQuery(q).WithArgs("tok-1").WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, "u-1", got.UserID)
}

func TestPostgresRefreshTokenRepository_Find_NotFound(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresRefreshTokenRepository(db)

	q := `(?s)^SELECT\s+token,\s*user_id,\s*expires_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "missing")
	require.ErrorIs(t, err, vaulterrors.ErrNotFound)
}

func TestPostgresRefreshTokenRepository_Delete(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewPostgresRefreshTokenRepository(db)

	q := `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("tok-1").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "tok-1")
	require.NoError(t, err)
}
