package grpcclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vaultmerge/vaultmerge/internal/vaulterrors"
)

func TestWithAccessToken_SetsHeader(t *testing.T) {
	ctx := withAccessToken(context.Background(), "tok-1")
	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	require.Equal(t, []string{"tok-1"}, md.Get(accessTokenHeader))
}

func TestAccessTokenInterceptor_AttachesTokenAndPassesThrough(t *testing.T) {
	c := &Client{accessToken: "tok-1"}

	var seenToken string
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(accessTokenHeader)
		require.Len(t, toks, 1)
		seenToken = toks[0]
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, "tok-1", seenToken)
}

func TestAccessTokenInterceptor_NonExpiredUnauthenticated_NoRetry(t *testing.T) {
	c := &Client{accessToken: "tok-1", refreshToken: "r1"}
	calls := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, "invalid token")
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestAccessTokenInterceptor_ExpiredButNoRefreshToken_NoRetry(t *testing.T) {
	c := &Client{accessToken: "tok-1"}
	calls := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, vaulterrors.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestAccessTokenInterceptor_IgnoresNonAuthErrors(t *testing.T) {
	c := &Client{accessToken: "tok-1"}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Internal, "boom")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

func TestMapError(t *testing.T) {
	require.NoError(t, mapError(nil))
	require.ErrorIs(t, mapError(status.Error(codes.Unauthenticated, "x")), ErrUnauthorized)
	require.ErrorIs(t, mapError(status.Error(codes.PermissionDenied, "x")), ErrUnauthorized)
	require.ErrorIs(t, mapError(status.Error(codes.Unavailable, "x")), ErrUnavailable)
	require.ErrorIs(t, mapError(status.Error(codes.DeadlineExceeded, "x")), ErrUnavailable)
	require.ErrorContains(t, mapError(errors.New("plain")), "rpc error:")
}
