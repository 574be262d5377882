// Package account provides PostgreSQL-backed storage for user accounts and
// refresh tokens, grounded on the teacher's users/refreshtokens repository
// pair but consolidated into one file since both tables are small and always
// used together.
package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/vaultmerge/vaultmerge/internal/dbx"
	"github.com/vaultmerge/vaultmerge/internal/server/models"
	"github.com/vaultmerge/vaultmerge/internal/vaulterrors"
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
}

// RefreshTokenRepository persists single-use refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, token string, ttl int64) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

// PostgresUserRepository is a UserRepository backed by Postgres.
type PostgresUserRepository struct {
	db dbx.DBTX
}

// NewPostgresUserRepository binds a UserRepository to db.
func NewPostgresUserRepository(db dbx.DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, salt, verifier) VALUES ($1, $2, $3, $4)`,
		id, u.UserName, u.Salt, u.Verifier)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return u, nil
}

func (r *PostgresUserRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, salt, verifier FROM users WHERE username = $1`, userName)
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.UserName, &u.Salt, &u.Verifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaulterrors.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// PostgresRefreshTokenRepository is a RefreshTokenRepository backed by Postgres.
type PostgresRefreshTokenRepository struct {
	db dbx.DBTX
}

// NewPostgresRefreshTokenRepository binds a RefreshTokenRepository to db.
func NewPostgresRefreshTokenRepository(db dbx.DBTX) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{db: db}
}

func (r *PostgresRefreshTokenRepository) Create(ctx context.Context, userID, token string, ttlSeconds int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, now() + make_interval(secs => $3))`,
		token, userID, ttlSeconds)
	return err
}

func (r *PostgresRefreshTokenRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT token, user_id, expires_at FROM refresh_tokens WHERE token = $1`, token)
	rt := &models.RefreshToken{}
	if err := row.Scan(&rt.Token, &rt.UserID, &rt.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaulterrors.ErrNotFound
		}
		return nil, err
	}
	return rt, nil
}

func (r *PostgresRefreshTokenRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}
