package services

import "context"

// rpcClient is the subset of grpcclient.Client the application services
// depend on. Defining it here (rather than depending on the concrete type)
// lets tests substitute a fake server connection.
type rpcClient interface {
	RegisterUser(ctx context.Context, username string, salt, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifierCandidate []byte) error
	Ping(ctx context.Context) error
	Sync(ctx context.Context, snapshotJSON []byte) (mergedJSON []byte, changes []string, err error)
	GetBackupUploadURL(ctx context.Context) (storageKey, url string, err error)
	GetBackupDownloadURL(ctx context.Context, storageKey string) (string, error)
	Tokens() (accessToken, refreshToken string)
	SetTokens(accessToken, refreshToken string)
	Close() error
}
