package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vaultmerge/vaultmerge/internal/vault"
)

func TestVaultService_AddGroupAndEntry(t *testing.T) {
	f := &fakeRPCClient{}
	s := NewVaultService(f, newTestStore(t))

	g, err := s.AddGroup(uuid.Nil, "Personal")
	require.NoError(t, err)
	require.Equal(t, "Personal", g.Name)

	e, err := s.AddEntry(g.UUID(), "Bank", map[string]string{"user": "alice"})
	require.NoError(t, err)
	require.Equal(t, "Bank", e.Title)

	require.NotNil(t, s.Database().FindEntryByUUID(e.UUID()))
	require.NotNil(t, s.Database().FindGroupByUUID(g.UUID()))
}

func TestVaultService_AddEntry_UnknownGroup(t *testing.T) {
	s := NewVaultService(&fakeRPCClient{}, newTestStore(t))
	_, err := s.AddEntry(uuid.New(), "x", nil)
	require.Error(t, err)
}

func TestVaultService_UpdateEntry_RecordsHistory(t *testing.T) {
	s := NewVaultService(&fakeRPCClient{}, newTestStore(t))
	e, err := s.AddEntry(uuid.Nil, "Bank", map[string]string{"user": "alice"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateEntry(e.UUID(), "Bank v2", map[string]string{"user": "bob"}))

	updated := s.Database().FindEntryByUUID(e.UUID())
	require.Equal(t, "Bank v2", updated.Title)
	require.Len(t, updated.HistoryItems(), 1)
	require.Equal(t, "Bank", updated.HistoryItems()[0].Title)
}

func TestVaultService_DeleteEntry_RecordsTombstone(t *testing.T) {
	s := NewVaultService(&fakeRPCClient{}, newTestStore(t))
	e, err := s.AddEntry(uuid.Nil, "Bank", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntry(e.UUID()))
	require.Nil(t, s.Database().FindEntryByUUID(e.UUID()))

	found := false
	for _, d := range s.Database().DeletedObjects() {
		if d.UUID == e.UUID() {
			found = true
		}
	}
	require.True(t, found)
}

func TestVaultService_DeleteGroup_RemovesSubtree(t *testing.T) {
	s := NewVaultService(&fakeRPCClient{}, newTestStore(t))
	g, err := s.AddGroup(uuid.Nil, "Work")
	require.NoError(t, err)
	e, err := s.AddEntry(g.UUID(), "VPN", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteGroup(g.UUID()))
	require.Nil(t, s.Database().FindGroupByUUID(g.UUID()))
	require.Nil(t, s.Database().FindEntryByUUID(e.UUID()))
}

func TestVaultService_Sync_AdoptsMergedSnapshotAndCaches(t *testing.T) {
	store := newTestStore(t)
	s := NewVaultService(&fakeRPCClient{}, store)

	_, err := s.AddGroup(uuid.Nil, "Personal")
	require.NoError(t, err)

	merged := vault.New()
	merged.RootGroup().Name = "Root From Server"
	mergedJSON, err := json.Marshal(merged.ToSnapshot())
	require.NoError(t, err)

	f := &fakeRPCClient{syncMerged: mergedJSON, syncChanges: []string{"added group Personal"}}
	s = NewVaultService(f, store)

	changes, err := s.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"added group Personal"}, changes)
	require.Equal(t, "Root From Server", s.Database().RootGroup().Name)

	cached, err := store.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, mergedJSON, cached)
}

func TestVaultService_Adopt_ReplacesDatabaseAndCaches(t *testing.T) {
	store := newTestStore(t)
	s := NewVaultService(&fakeRPCClient{}, store)

	restored := vault.New()
	restored.RootGroup().Name = "Restored Root"
	restoredJSON, err := json.Marshal(restored.ToSnapshot())
	require.NoError(t, err)

	require.NoError(t, s.Adopt(context.Background(), restoredJSON))
	require.Equal(t, "Restored Root", s.Database().RootGroup().Name)

	cached, err := store.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, restoredJSON, cached)
}

func TestVaultService_Load_RestoresCachedSnapshot(t *testing.T) {
	store := newTestStore(t)

	db := vault.New()
	db.RootGroup().Name = "Cached Root"
	snapJSON, err := json.Marshal(db.ToSnapshot())
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(context.Background(), snapJSON))

	s := NewVaultService(&fakeRPCClient{}, store)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, "Cached Root", s.Database().RootGroup().Name)
}
