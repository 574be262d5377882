// Package services contains application services for the vaultmerge CLI.
// This file defines the authentication service: login, registration, and
// liveness checks against the server.
package services

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/vaultmerge/vaultmerge/internal/client/localstore"
	"github.com/vaultmerge/vaultmerge/internal/cryptox"
)

// AuthService authenticates against the server and manages the local
// session cache so subsequent commands don't need to re-derive credentials.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	RestoreSession(ctx context.Context) (username string, ok bool, err error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type authService struct {
	client rpcClient
	store  *localstore.Store
}

// NewAuthService constructs an AuthService bound to the given gRPC client and
// local store.
func NewAuthService(client rpcClient, store *localstore.Store) AuthService {
	return &authService{client: client, store: store}
}

// Register creates a new account. It derives an SRP-style master key and
// verifier from the password client-side; the server never sees the
// password itself.
func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}
	key := cryptox.DeriveMasterKey(password, salt)
	verifier := cryptox.MakeVerifier(key)

	if err := a.client.RegisterUser(ctx, username, salt, verifier); err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	return nil
}

// Login authenticates against the server and persists the resulting session
// so future commands can run without prompting again.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	salt, err := a.client.GetSalt(ctx, username)
	if err != nil {
		return fmt.Errorf("fetching salt: %w", err)
	}

	key := cryptox.DeriveMasterKey(password, salt)
	verifier := cryptox.MakeVerifier(key)

	if err := a.client.Login(ctx, username, verifier); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	access, refresh := a.client.Tokens()
	return a.store.SaveSession(ctx, localstore.Session{
		Username:     username,
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// RestoreSession loads a previously saved session into the gRPC client, so a
// new process can resume without logging in again.
func (a *authService) RestoreSession(ctx context.Context) (string, bool, error) {
	sess, ok, err := a.store.LoadSession(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	a.client.SetTokens(sess.AccessToken, sess.RefreshToken)
	return sess.Username, true, nil
}

// Logout clears the persisted session.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetTokens("", "")
	return a.store.ClearSession(ctx)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close() error {
	return a.client.Close()
}
