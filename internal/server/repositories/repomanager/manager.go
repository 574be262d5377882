package repomanager

import (
	"context"
	"database/sql"

	"github.com/vaultmerge/vaultmerge/internal/dbx"
	"github.com/vaultmerge/vaultmerge/internal/server/repositories/account"
	vaultrepo "github.com/vaultmerge/vaultmerge/internal/server/repositories/vault"
)

// RepositoryManager vends repository implementations bound to a DBTX handle
// and owns schema migrations. Services take a RepositoryManager plus a *sql.DB
// so every call site can choose to run inside a transaction via dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) account.UserRepository
	RefreshTokens(db dbx.DBTX) account.RefreshTokenRepository
	Vault(db dbx.DBTX) vaultrepo.Repository
}
