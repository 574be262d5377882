// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vaultmerge/vaultmerge/internal/dbx"
	"github.com/vaultmerge/vaultmerge/internal/server/migrations"
	"github.com/vaultmerge/vaultmerge/internal/server/repositories/account"
	vaultrepo "github.com/vaultmerge/vaultmerge/internal/server/repositories/vault"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns an account.UserRepository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) account.UserRepository {
	return account.NewPostgresUserRepository(db)
}

// RefreshTokens returns an account.RefreshTokenRepository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) account.RefreshTokenRepository {
	return account.NewPostgresRefreshTokenRepository(db)
}

// Vault returns a vault.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Vault(db dbx.DBTX) vaultrepo.Repository {
	return vaultrepo.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}
