package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vaultmerge/vaultmerge/internal/client/localstore"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// VaultService owns the in-memory vault the CLI edits between syncs, backed
// by a local cache so edits survive across process restarts while offline.
type VaultService interface {
	Load(ctx context.Context) error
	Sync(ctx context.Context) ([]string, error)
	Adopt(ctx context.Context, snapshotJSON []byte) error
	Database() *vault.Database
	AddGroup(parent uuid.UUID, name string) (*vault.Group, error)
	AddEntry(group uuid.UUID, title string, fields map[string]string) (*vault.Entry, error)
	UpdateEntry(id uuid.UUID, title string, fields map[string]string) error
	DeleteEntry(id uuid.UUID) error
	DeleteGroup(id uuid.UUID) error
}

type vaultService struct {
	client rpcClient
	store  *localstore.Store
	db     *vault.Database
}

// NewVaultService constructs a VaultService bound to the given gRPC client
// and local cache.
func NewVaultService(client rpcClient, store *localstore.Store) VaultService {
	return &vaultService{client: client, store: store, db: vault.New()}
}

// Load restores the last cached snapshot, if any, so the CLI has something
// to work with before its first sync.
func (v *vaultService) Load(ctx context.Context) error {
	cached, err := v.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading cached vault: %w", err)
	}
	if cached == nil {
		return nil
	}

	var snap vault.Snapshot
	if err := json.Unmarshal(cached, &snap); err != nil {
		return fmt.Errorf("decoding cached vault: %w", err)
	}
	db, err := vault.FromSnapshot(&snap)
	if err != nil {
		return fmt.Errorf("rebuilding cached vault: %w", err)
	}
	v.db = db
	return nil
}

// Database returns the vault currently held in memory.
func (v *vaultService) Database() *vault.Database {
	return v.db
}

// Sync sends the in-memory vault to the server for structural merging and
// adopts the merged result, caching it locally.
func (v *vaultService) Sync(ctx context.Context) ([]string, error) {
	snapshotJSON, err := json.Marshal(v.db.ToSnapshot())
	if err != nil {
		return nil, fmt.Errorf("encoding vault: %w", err)
	}

	mergedJSON, changes, err := v.client.Sync(ctx, snapshotJSON)
	if err != nil {
		return nil, fmt.Errorf("syncing vault: %w", err)
	}

	var merged vault.Snapshot
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, fmt.Errorf("decoding merged vault: %w", err)
	}
	db, err := vault.FromSnapshot(&merged)
	if err != nil {
		return nil, fmt.Errorf("rebuilding merged vault: %w", err)
	}
	v.db = db

	if err := v.store.SaveSnapshot(ctx, mergedJSON); err != nil {
		return nil, fmt.Errorf("caching merged vault: %w", err)
	}

	return changes, nil
}

// Adopt replaces the in-memory vault with the one encoded in snapshotJSON
// and caches it locally, used to restore a full-vault backup.
func (v *vaultService) Adopt(ctx context.Context, snapshotJSON []byte) error {
	var snap vault.Snapshot
	if err := json.Unmarshal(snapshotJSON, &snap); err != nil {
		return fmt.Errorf("decoding backup: %w", err)
	}
	db, err := vault.FromSnapshot(&snap)
	if err != nil {
		return fmt.Errorf("rebuilding vault from backup: %w", err)
	}
	v.db = db

	if err := v.store.SaveSnapshot(ctx, snapshotJSON); err != nil {
		return fmt.Errorf("caching restored vault: %w", err)
	}
	return nil
}

// AddGroup creates a new group under parent (uuid.Nil selects the root
// group).
func (v *vaultService) AddGroup(parent uuid.UUID, name string) (*vault.Group, error) {
	parentGroup := v.resolveGroup(parent)
	if parentGroup == nil {
		return nil, fmt.Errorf("group %s not found", parent)
	}

	g := vault.NewGroup()
	g.Name = name
	g.TimeInfo = vault.NewTimeInfo(time.Now())
	v.db.AttachGroup(g, parentGroup)
	v.db.MarkAsModified()
	return g, nil
}

// AddEntry creates a new entry in the given group.
func (v *vaultService) AddEntry(group uuid.UUID, title string, fields map[string]string) (*vault.Entry, error) {
	parentGroup := v.resolveGroup(group)
	if parentGroup == nil {
		return nil, fmt.Errorf("group %s not found", group)
	}

	e := vault.NewEntry()
	e.Title = title
	e.Fields = fields
	e.TimeInfo = vault.NewTimeInfo(time.Now())
	v.db.AttachEntry(e, parentGroup)
	v.db.MarkAsModified()
	return e, nil
}

// UpdateEntry pushes the entry's current state into its history and applies
// new field values, bumping LastModificationTime.
func (v *vaultService) UpdateEntry(id uuid.UUID, title string, fields map[string]string) error {
	e := v.db.FindEntryByUUID(id)
	if e == nil {
		return fmt.Errorf("entry %s not found", id)
	}

	previous := e.Clone(vault.CloneNoFlags)
	e.AddHistoryItem(previous)

	e.Title = title
	e.Fields = fields
	e.TimeInfo.LastModificationTime = time.Now()
	if max := v.db.Metadata().HistoryMaxItems; max > 0 {
		e.TruncateHistory(max)
	}
	v.db.MarkAsModified()
	return nil
}

// DeleteEntry removes an entry and records a tombstone for it.
func (v *vaultService) DeleteEntry(id uuid.UUID) error {
	e := v.db.FindEntryByUUID(id)
	if e == nil {
		return fmt.Errorf("entry %s not found", id)
	}
	v.db.RemoveEntryWithoutTombstone(e)
	v.db.SetDeletedObjects(append(v.db.DeletedObjects(), vault.DeletedObject{UUID: id, DeletionTime: time.Now()}))
	v.db.MarkAsModified()
	return nil
}

// DeleteGroup removes a group (and its subtree) and records tombstones for
// every node in the subtree.
func (v *vaultService) DeleteGroup(id uuid.UUID) error {
	g := v.db.FindGroupByUUID(id)
	if g == nil {
		return fmt.Errorf("group %s not found", id)
	}

	deleted := v.db.DeletedObjects()
	now := time.Now()
	for _, e := range g.EntriesRecursive() {
		deleted = append(deleted, vault.DeletedObject{UUID: e.UUID(), DeletionTime: now})
	}
	for _, sub := range g.GroupsRecursive() {
		deleted = append(deleted, vault.DeletedObject{UUID: sub.UUID(), DeletionTime: now})
	}
	deleted = append(deleted, vault.DeletedObject{UUID: id, DeletionTime: now})

	v.db.RemoveGroupWithoutTombstone(g)
	v.db.SetDeletedObjects(deleted)
	v.db.MarkAsModified()
	return nil
}

func (v *vaultService) resolveGroup(id uuid.UUID) *vault.Group {
	if id == uuid.Nil {
		return v.db.RootGroup()
	}
	return v.db.FindGroupByUUID(id)
}
