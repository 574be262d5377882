package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vaultmerge/vaultmerge/internal/client/services"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

type fakeAuth struct {
	registerErr error
	loginErr    error
	pingErr     error

	restoreUser string
	restoreOK   bool
	restoreErr  error
}

func (f *fakeAuth) Register(ctx context.Context, username string, password []byte) error {
	return f.registerErr
}
func (f *fakeAuth) Login(ctx context.Context, username string, password []byte) error {
	return f.loginErr
}
func (f *fakeAuth) RestoreSession(ctx context.Context) (string, bool, error) {
	return f.restoreUser, f.restoreOK, f.restoreErr
}
func (f *fakeAuth) Logout(ctx context.Context) error { return nil }
func (f *fakeAuth) Ping(ctx context.Context) error   { return f.pingErr }
func (f *fakeAuth) Close() error                     { return nil }

type fakeVault struct {
	db *vault.Database

	syncChanges []string
	syncErr     error
	adoptErr    error
	loadErr     error
}

func newFakeVault() *fakeVault {
	return &fakeVault{db: vault.New()}
}

func (f *fakeVault) Load(ctx context.Context) error { return f.loadErr }
func (f *fakeVault) Sync(ctx context.Context) ([]string, error) {
	return f.syncChanges, f.syncErr
}
func (f *fakeVault) Adopt(ctx context.Context, snapshotJSON []byte) error { return f.adoptErr }
func (f *fakeVault) Database() *vault.Database                           { return f.db }
func (f *fakeVault) resolveGroup(id uuid.UUID) *vault.Group {
	if id == uuid.Nil {
		return f.db.RootGroup()
	}
	return f.db.FindGroupByUUID(id)
}

func (f *fakeVault) AddGroup(parent uuid.UUID, name string) (*vault.Group, error) {
	p := f.resolveGroup(parent)
	if p == nil {
		return nil, fmt.Errorf("group %s not found", parent)
	}
	g := vault.NewGroup()
	g.Name = name
	f.db.AttachGroup(g, p)
	return g, nil
}
func (f *fakeVault) AddEntry(group uuid.UUID, title string, fields map[string]string) (*vault.Entry, error) {
	p := f.resolveGroup(group)
	if p == nil {
		return nil, fmt.Errorf("group %s not found", group)
	}
	e := vault.NewEntry()
	e.Title = title
	e.Fields = fields
	f.db.AttachEntry(e, p)
	return e, nil
}
func (f *fakeVault) UpdateEntry(id uuid.UUID, title string, fields map[string]string) error {
	e := f.db.FindEntryByUUID(id)
	if e == nil {
		return fmt.Errorf("entry %s not found", id)
	}
	e.Title = title
	e.Fields = fields
	return nil
}
func (f *fakeVault) DeleteEntry(id uuid.UUID) error {
	e := f.db.FindEntryByUUID(id)
	if e == nil {
		return fmt.Errorf("entry %s not found", id)
	}
	f.db.RemoveEntryWithoutTombstone(e)
	return nil
}
func (f *fakeVault) DeleteGroup(id uuid.UUID) error {
	g := f.db.FindGroupByUUID(id)
	if g == nil {
		return fmt.Errorf("group %s not found", id)
	}
	f.db.RemoveGroupWithoutTombstone(g)
	return nil
}

type fakeBackup struct {
	exportKey string
	exportErr error

	importBody []byte
	importErr  error
}

func (f *fakeBackup) Export(ctx context.Context, vs services.VaultService) (string, error) {
	return f.exportKey, f.exportErr
}
func (f *fakeBackup) Import(ctx context.Context, storageKey string) ([]byte, error) {
	return f.importBody, f.importErr
}

func newTestApp(reader string) (*App, *fakeVault) {
	fv := newFakeVault()
	a := &App{
		authService:   &fakeAuth{},
		vaultService:  fv,
		backupService: &fakeBackup{},
		reader:        bufio.NewReader(strings.NewReader(reader)),
	}
	return a, fv
}

func TestGetStatus(t *testing.T) {
	a := &App{}
	require.Equal(t, "", a.getStatus())

	a.userName = "alice"
	a.Mode = ModeOnline
	require.Equal(t, "(alice online)", a.getStatus())

	a.userName = ""
	require.Equal(t, "(online)", a.getStatus())
}

func TestIsLoggedIn(t *testing.T) {
	a := &App{}
	require.False(t, a.isLoggedIn())
	a.userName = "bob"
	require.True(t, a.isLoggedIn())
}

func TestAddGroup_RootAndNamed(t *testing.T) {
	a, fv := newTestApp("\nWork\n")
	a.addGroup()

	found := false
	for _, c := range fv.db.RootGroup().Children() {
		if c.Name == "Work" {
			found = true
		}
	}
	require.True(t, found)
}

func TestAddGroup_InvalidParentUUID(t *testing.T) {
	a, fv := newTestApp("not-a-uuid\n")
	a.addGroup()
	require.Empty(t, fv.db.RootGroup().Children())
}

func TestAddEntry_ToRoot(t *testing.T) {
	a, fv := newTestApp("\nBank\nuser=alice\n\n")
	a.addEntry()

	require.Len(t, fv.db.RootGroup().Entries(), 1)
	require.Equal(t, "Bank", fv.db.RootGroup().Entries()[0].Title)
	require.Equal(t, "alice", fv.db.RootGroup().Entries()[0].Fields["user"])
}

func TestDeleteEntry_RemovesFromDatabase(t *testing.T) {
	a, fv := newTestApp("")
	e := vault.NewEntry()
	e.Title = "x"
	fv.db.AttachEntry(e, fv.db.RootGroup())

	a.reader = bufio.NewReader(strings.NewReader(e.UUID().String() + "\n"))
	a.deleteEntry()

	require.Nil(t, fv.db.FindEntryByUUID(e.UUID()))
}
