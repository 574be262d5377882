package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vaultmerge/vaultmerge/internal/dbx"
	"github.com/vaultmerge/vaultmerge/internal/merge"
	"github.com/vaultmerge/vaultmerge/internal/server/repositories/repomanager"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// VaultSyncService reconciles a client's submitted vault snapshot against
// the server's stored copy using the structural merge engine, then persists
// and returns the merged result.
type VaultSyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewVaultSyncService constructs a VaultSyncService.
func NewVaultSyncService(db *sql.DB, m repomanager.RepositoryManager) *VaultSyncService {
	return &VaultSyncService{db: db, repomanager: m}
}

// Sync merges clientSnapshot into the stored database for userID and returns
// the merged snapshot plus a description of every change the merge made.
// The whole read-merge-write cycle runs inside one transaction, and
// repo.Load takes a Postgres advisory lock scoped to that transaction and
// keyed on userID, so concurrent syncs from the same user's other devices
// serialize on the lock instead of both loading the same snapshot and
// racing on the write.
func (s *VaultSyncService) Sync(ctx context.Context, userID uuid.UUID, clientSnapshot *vault.Snapshot) (*vault.Snapshot, []string, error) {
	clientDB, err := vault.FromSnapshot(clientSnapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding client snapshot: %w", err)
	}

	var result *vault.Snapshot
	var changeLines []string

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Vault(tx)

		serverDB, err := repo.Load(ctx, userID)
		if err != nil {
			return fmt.Errorf("loading stored vault: %w", err)
		}

		merger, err := merge.NewFromDatabases(clientDB, serverDB)
		if err != nil {
			return err
		}
		merger.SetForcedMergeMode(vault.MergeModeSynchronize)
		changes := merger.Merge()
		for _, c := range changes {
			changeLines = append(changeLines, c.String())
		}

		if err := repo.Save(ctx, userID, serverDB); err != nil {
			return fmt.Errorf("saving merged vault: %w", err)
		}

		result = serverDB.ToSnapshot()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return result, changeLines, nil
}
