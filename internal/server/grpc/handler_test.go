package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vaultmerge/vaultmerge/internal/logging"
	"github.com/vaultmerge/vaultmerge/internal/server/models"
	"github.com/vaultmerge/vaultmerge/internal/server/services"
	"github.com/vaultmerge/vaultmerge/internal/syncproto"
	"github.com/vaultmerge/vaultmerge/internal/vault"
	"github.com/vaultmerge/vaultmerge/internal/vaulterrors"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger          { return n }

type fakeUser struct {
	refreshResp *services.TokenPair
	refreshErr  error

	regResp *models.User
	regErr  error

	saltResp []byte
	saltErr  error

	loginResp *services.TokenPair
	loginErr  error
}

func (f *fakeUser) RefreshToken(ctx context.Context, refresh string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}
func (f *fakeUser) Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error) {
	return f.regResp, f.regErr
}
func (f *fakeUser) GetSalt(ctx context.Context, username string) ([]byte, error) {
	return f.saltResp, f.saltErr
}
func (f *fakeUser) Login(ctx context.Context, username string, verifierCandidate []byte) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}

type fakeBackup struct {
	uploadKey string
	uploadURL string
	uploadErr error

	downloadURL string
	downloadErr error

	gotUploadUser  uuid.UUID
	gotDownloadKey string
}

func (f *fakeBackup) GetUploadURL(ctx context.Context, userID uuid.UUID) (string, string, error) {
	f.gotUploadUser = userID
	return f.uploadKey, f.uploadURL, f.uploadErr
}

func (f *fakeBackup) GetDownloadURL(ctx context.Context, storageKey string) (string, error) {
	f.gotDownloadKey = storageKey
	return f.downloadURL, f.downloadErr
}

type fakeVaultSync struct {
	resp    *vault.Snapshot
	changes []string
	err     error
	gotUser uuid.UUID
}

func (f *fakeVaultSync) Sync(ctx context.Context, userID uuid.UUID, clientSnapshot *vault.Snapshot) (*vault.Snapshot, []string, error) {
	f.gotUser = userID
	return f.resp, f.changes, f.err
}

func newServer(u userSvc, v vaultSyncSvc) *GRPCServer {
	return &GRPCServer{
		address:   "127.0.0.1:0",
		users:     u,
		vaultSync: v,
		logger:    nopLogger{},
		jwtSecret: []byte("k"),
	}
}

func TestPing_OK(t *testing.T) {
	s := newServer(&fakeUser{}, &fakeVaultSync{})
	env, err := syncproto.Encode(&syncproto.PingRequest{})
	require.NoError(t, err)

	out, err := s.Ping(context.Background(), env)
	require.NoError(t, err)

	resp := &syncproto.PingResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.Equal(t, "OK", resp.Status)
}

func TestRefreshToken_OK(t *testing.T) {
	u := &fakeUser{refreshResp: &services.TokenPair{AccessToken: "a", RefreshToken: "r"}}
	s := newServer(u, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.RefreshTokenRequest{RefreshToken: "r0"})

	out, err := s.RefreshToken(context.Background(), env)
	require.NoError(t, err)

	resp := &syncproto.RefreshTokenResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.Equal(t, "a", resp.AccessToken)
	require.Equal(t, "r", resp.RefreshToken)
}

func TestRefreshToken_InternalOnError(t *testing.T) {
	u := &fakeUser{refreshErr: errors.New("oops")}
	s := newServer(u, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.RefreshTokenRequest{RefreshToken: "r0"})

	_, err := s.RefreshToken(context.Background(), env)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestRegisterUser_OK(t *testing.T) {
	u := &fakeUser{regResp: &models.User{ID: "42"}}
	s := newServer(u, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.RegisterUserRequest{Username: "u", Salt: []byte("s"), Verifier: []byte("v")})

	out, err := s.RegisterUser(context.Background(), env)
	require.NoError(t, err)

	resp := &syncproto.RegisterUserResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.Equal(t, "42", resp.UserID)
}

func TestRegisterUser_InternalOnError(t *testing.T) {
	u := &fakeUser{regErr: errors.New("db down")}
	s := newServer(u, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.RegisterUserRequest{Username: "u"})

	_, err := s.RegisterUser(context.Background(), env)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestGetSalt_OK(t *testing.T) {
	u := &fakeUser{saltResp: []byte("SALT123")}
	s := newServer(u, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.GetSaltRequest{Username: "u"})

	out, err := s.GetSalt(context.Background(), env)
	require.NoError(t, err)

	resp := &syncproto.GetSaltResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.True(t, bytes.Equal([]byte("SALT123"), resp.Salt))
}

func TestGetSalt_InternalOnError(t *testing.T) {
	u := &fakeUser{saltErr: errors.New("no user")}
	s := newServer(u, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.GetSaltRequest{Username: "u"})

	_, err := s.GetSalt(context.Background(), env)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestLogin_OK(t *testing.T) {
	u := &fakeUser{loginResp: &services.TokenPair{AccessToken: "A", RefreshToken: "R"}}
	s := newServer(u, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.LoginRequest{Username: "u", VerifierCandidate: []byte("vv")})

	out, err := s.Login(context.Background(), env)
	require.NoError(t, err)

	resp := &syncproto.LoginResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.Equal(t, "A", resp.AccessToken)
	require.Equal(t, "R", resp.RefreshToken)
}

func TestLogin_UnauthorizedAndInternal(t *testing.T) {
	s := newServer(&fakeUser{loginErr: vaulterrors.ErrUnauthorized}, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.LoginRequest{Username: "u"})
	_, err := s.Login(context.Background(), env)
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	s2 := newServer(&fakeUser{loginErr: errors.New("boom")}, &fakeVaultSync{})
	_, err = s2.Login(context.Background(), env)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestSync_OK(t *testing.T) {
	merged := vault.New().ToSnapshot()
	v := &fakeVaultSync{resp: merged, changes: []string{"Added: 'Root'/'x' [..]"}}
	s := newServer(&fakeUser{}, v)

	userID := uuid.New()
	ctx := context.WithValue(context.Background(), userIDKey, userID.String())

	snapshotJSON, err := json.Marshal(vault.New().ToSnapshot())
	require.NoError(t, err)
	env, _ := syncproto.Encode(&syncproto.SyncRequest{Snapshot: snapshotJSON})

	out, err := s.Sync(ctx, env)
	require.NoError(t, err)

	resp := &syncproto.SyncResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.Equal(t, userID, v.gotUser)
	require.Len(t, resp.Changes, 1)
}

func TestSync_MissingUserID(t *testing.T) {
	s := newServer(&fakeUser{}, &fakeVaultSync{})
	env, _ := syncproto.Encode(&syncproto.SyncRequest{})

	_, err := s.Sync(context.Background(), env)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestSync_PropagatesInternalError(t *testing.T) {
	v := &fakeVaultSync{err: errors.New("db down")}
	s := newServer(&fakeUser{}, v)

	ctx := context.WithValue(context.Background(), userIDKey, uuid.New().String())
	snapshotJSON, _ := json.Marshal(vault.New().ToSnapshot())
	env, _ := syncproto.Encode(&syncproto.SyncRequest{Snapshot: snapshotJSON})

	_, err := s.Sync(ctx, env)
	require.Equal(t, codes.Internal, status.Code(err))
}

func newServerWithBackup(b backupSvc) *GRPCServer {
	return &GRPCServer{
		address: "127.0.0.1:0",
		users:   &fakeUser{},
		backup:  b,
		logger:  nopLogger{},
	}
}

func TestGetBackupUploadURL_OK(t *testing.T) {
	b := &fakeBackup{uploadKey: "backups/u1/k", uploadURL: "https://example.test/put"}
	s := newServerWithBackup(b)

	userID := uuid.New()
	ctx := context.WithValue(context.Background(), userIDKey, userID.String())

	env, _ := syncproto.Encode(&syncproto.GetBackupUploadURLRequest{})
	out, err := s.GetBackupUploadURL(ctx, env)
	require.NoError(t, err)

	resp := &syncproto.GetBackupUploadURLResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.Equal(t, "backups/u1/k", resp.StorageKey)
	require.Equal(t, "https://example.test/put", resp.URL)
	require.Equal(t, userID, b.gotUploadUser)
}

func TestGetBackupUploadURL_MissingUserID(t *testing.T) {
	s := newServerWithBackup(&fakeBackup{})
	env, _ := syncproto.Encode(&syncproto.GetBackupUploadURLRequest{})

	_, err := s.GetBackupUploadURL(context.Background(), env)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGetBackupDownloadURL_OK(t *testing.T) {
	b := &fakeBackup{downloadURL: "https://example.test/get"}
	s := newServerWithBackup(b)

	ctx := context.WithValue(context.Background(), userIDKey, uuid.New().String())
	env, _ := syncproto.Encode(&syncproto.GetBackupDownloadURLRequest{StorageKey: "backups/u1/k"})

	out, err := s.GetBackupDownloadURL(ctx, env)
	require.NoError(t, err)

	resp := &syncproto.GetBackupDownloadURLResponse{}
	require.NoError(t, syncproto.Decode(out, resp))
	require.Equal(t, "https://example.test/get", resp.URL)
	require.Equal(t, "backups/u1/k", b.gotDownloadKey)
}

func TestGetBackupDownloadURL_MissingUserID(t *testing.T) {
	s := newServerWithBackup(&fakeBackup{})
	env, _ := syncproto.Encode(&syncproto.GetBackupDownloadURLRequest{StorageKey: "x"})

	_, err := s.GetBackupDownloadURL(context.Background(), env)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}
