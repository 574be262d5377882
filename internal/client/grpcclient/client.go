// Package grpcclient is the CLI's transport to vaultmerged: a thin gRPC
// connection wrapper that injects the access token on outgoing calls and
// transparently refreshes it when the server reports it expired.
package grpcclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vaultmerge/vaultmerge/internal/syncproto"
	"github.com/vaultmerge/vaultmerge/internal/vaulterrors"
)

const accessTokenHeader = "access_token"

// Client talks to vaultmerged over gRPC using the syncproto envelope
// contract, holding the current session's token pair.
type Client struct {
	conn         *grpc.ClientConn
	rpc          *syncproto.Client
	accessToken  string
	refreshToken string
}

// Dial connects to endpointAddr and returns a ready Client.
func Dial(endpointAddr string) (*Client, error) {
	c := &Client{}

	conn, err := grpc.NewClient(endpointAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	c.rpc = syncproto.NewClient(conn)
	return c, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetTokens installs a token pair obtained from a prior Login/RefreshToken
// call or restored from local storage.
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

// Tokens returns the client's current token pair, e.g. to persist locally.
func (c *Client) Tokens() (accessToken, refreshToken string) {
	return c.accessToken, c.refreshToken
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Delete(accessTokenHeader)
	md.Set(accessTokenHeader, token)
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the current access token to every call and,
// on a token-expired error, refreshes it once and retries.
func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx = withAccessToken(ctx, c.accessToken)

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated {
		return err
	}
	if st.Message() != vaulterrors.ErrTokenExpired.Error() || c.refreshToken == "" {
		return err
	}

	resp, refreshErr := c.rpc.RefreshToken(ctx, &syncproto.RefreshTokenRequest{RefreshToken: c.refreshToken})
	if refreshErr != nil {
		return err
	}

	c.accessToken = resp.AccessToken
	c.refreshToken = resp.RefreshToken

	ctx = withAccessToken(ctx, c.accessToken)
	return invoker(ctx, method, req, reply, cc, opts...)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// RegisterUser creates a new account from an SRP salt and verifier.
func (c *Client) RegisterUser(ctx context.Context, username string, salt, verifier []byte) error {
	_, err := c.rpc.RegisterUser(ctx, &syncproto.RegisterUserRequest{Username: username, Salt: salt, Verifier: verifier})
	return mapError(err)
}

// GetSalt fetches username's SRP salt.
func (c *Client) GetSalt(ctx context.Context, username string) ([]byte, error) {
	resp, err := c.rpc.GetSalt(ctx, &syncproto.GetSaltRequest{Username: username})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Salt, nil
}

// Login authenticates with an SRP verifier candidate and stores the
// returned token pair.
func (c *Client) Login(ctx context.Context, username string, verifierCandidate []byte) error {
	resp, err := c.rpc.Login(ctx, &syncproto.LoginRequest{Username: username, VerifierCandidate: verifierCandidate})
	if err != nil {
		return mapError(err)
	}
	c.accessToken = resp.AccessToken
	c.refreshToken = resp.RefreshToken
	return nil
}

// Ping checks whether the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.rpc.Ping(ctx, &syncproto.PingRequest{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

// Sync submits the local snapshot (JSON-encoded vault.Snapshot) and returns
// the merged snapshot plus a summary of what changed.
func (c *Client) Sync(ctx context.Context, snapshotJSON []byte) (mergedJSON []byte, changes []string, err error) {
	resp, err := c.rpc.Sync(ctx, &syncproto.SyncRequest{Snapshot: snapshotJSON})
	if err != nil {
		return nil, nil, mapError(err)
	}
	return resp.Snapshot, resp.Changes, nil
}

// GetBackupUploadURL requests a presigned URL to upload a full-vault backup,
// along with the storage key needed to fetch it back later.
func (c *Client) GetBackupUploadURL(ctx context.Context) (storageKey, url string, err error) {
	resp, err := c.rpc.GetBackupUploadURL(ctx, &syncproto.GetBackupUploadURLRequest{})
	if err != nil {
		return "", "", mapError(err)
	}
	return resp.StorageKey, resp.URL, nil
}

// GetBackupDownloadURL requests a presigned URL to download a previously
// uploaded backup.
func (c *Client) GetBackupDownloadURL(ctx context.Context, storageKey string) (string, error) {
	resp, err := c.rpc.GetBackupDownloadURL(ctx, &syncproto.GetBackupDownloadURLRequest{StorageKey: storageKey})
	if err != nil {
		return "", mapError(err)
	}
	return resp.URL, nil
}
