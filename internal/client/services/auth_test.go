package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultmerge/vaultmerge/internal/client/localstore"

	_ "modernc.org/sqlite"
)

type fakeRPCClient struct {
	registerErr error
	lastRegUser string
	lastRegSalt []byte
	lastRegVer  []byte

	salt       []byte
	getSaltErr error

	loginErr      error
	lastLoginUser string
	lastLoginVer  []byte

	accessToken  string
	refreshToken string

	pingErr error

	syncMerged  []byte
	syncChanges []string
	syncErr     error
	lastSyncReq []byte

	backupUploadKey string
	backupUploadURL string
	backupUploadErr error

	backupDownloadURL string
	backupDownloadErr error

	closeErr error
}

func (f *fakeRPCClient) RegisterUser(ctx context.Context, username string, salt, verifier []byte) error {
	f.lastRegUser, f.lastRegSalt, f.lastRegVer = username, salt, verifier
	return f.registerErr
}
func (f *fakeRPCClient) GetSalt(ctx context.Context, username string) ([]byte, error) {
	return f.salt, f.getSaltErr
}
func (f *fakeRPCClient) Login(ctx context.Context, username string, verifierCandidate []byte) error {
	f.lastLoginUser, f.lastLoginVer = username, verifierCandidate
	if f.loginErr != nil {
		return f.loginErr
	}
	f.accessToken, f.refreshToken = "access-1", "refresh-1"
	return nil
}
func (f *fakeRPCClient) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeRPCClient) Sync(ctx context.Context, snapshotJSON []byte) ([]byte, []string, error) {
	f.lastSyncReq = snapshotJSON
	return f.syncMerged, f.syncChanges, f.syncErr
}
func (f *fakeRPCClient) GetBackupUploadURL(ctx context.Context) (string, string, error) {
	return f.backupUploadKey, f.backupUploadURL, f.backupUploadErr
}
func (f *fakeRPCClient) GetBackupDownloadURL(ctx context.Context, storageKey string) (string, error) {
	return f.backupDownloadURL, f.backupDownloadErr
}
func (f *fakeRPCClient) Tokens() (string, string)         { return f.accessToken, f.refreshToken }
func (f *fakeRPCClient) SetTokens(access, refresh string) { f.accessToken, f.refreshToken = access, refresh }
func (f *fakeRPCClient) Close() error                     { return f.closeErr }

func newTestStore(t *testing.T) *localstore.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "vault.db")
	s, err := localstore.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAuthService_Register(t *testing.T) {
	f := &fakeRPCClient{}
	s := NewAuthService(f, newTestStore(t))

	require.NoError(t, s.Register(context.Background(), "alice", []byte("hunter2")))
	require.Equal(t, "alice", f.lastRegUser)
	require.Len(t, f.lastRegSalt, 32)
	require.NotEmpty(t, f.lastRegVer)
}

func TestAuthService_Register_PropagatesError(t *testing.T) {
	f := &fakeRPCClient{registerErr: errors.New("boom")}
	s := NewAuthService(f, newTestStore(t))

	err := s.Register(context.Background(), "alice", []byte("pw"))
	require.ErrorContains(t, err, "boom")
}

func TestAuthService_Login_PersistsSession(t *testing.T) {
	f := &fakeRPCClient{salt: []byte("some-salt")}
	store := newTestStore(t)
	s := NewAuthService(f, store)

	require.NoError(t, s.Login(context.Background(), "alice", []byte("hunter2")))
	require.Equal(t, "alice", f.lastLoginUser)

	sess, ok, err := store.LoadSession(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", sess.Username)
	require.Equal(t, "access-1", sess.AccessToken)
	require.Equal(t, "refresh-1", sess.RefreshToken)
}

func TestAuthService_RestoreSession(t *testing.T) {
	f := &fakeRPCClient{}
	store := newTestStore(t)
	require.NoError(t, store.SaveSession(context.Background(), localstore.Session{
		Username: "bob", AccessToken: "a", RefreshToken: "r",
	}))

	s := NewAuthService(f, store)
	username, ok, err := s.RestoreSession(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bob", username)

	got, _ := f.Tokens()
	require.Equal(t, "a", got)
}

func TestAuthService_Logout_ClearsSessionAndTokens(t *testing.T) {
	f := &fakeRPCClient{accessToken: "a", refreshToken: "r"}
	store := newTestStore(t)
	require.NoError(t, store.SaveSession(context.Background(), localstore.Session{Username: "bob"}))

	s := NewAuthService(f, store)
	require.NoError(t, s.Logout(context.Background()))

	access, refresh := f.Tokens()
	require.Empty(t, access)
	require.Empty(t, refresh)

	_, ok, err := store.LoadSession(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}
