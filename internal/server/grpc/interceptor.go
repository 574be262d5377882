package grpc

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vaultmerge/vaultmerge/internal/server/auth"
	"github.com/vaultmerge/vaultmerge/internal/syncproto"
	"github.com/vaultmerge/vaultmerge/internal/vaulterrors"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// authenticatedMethods lists RPCs that touch per-user data and therefore
// require a valid access token; RegisterUser/GetSalt/Login are how a caller
// obtains that token in the first place, and Ping needs no identity at all.
var authenticatedMethods = map[string]bool{
	syncproto.MethodSync:                 true,
	syncproto.MethodGetBackupUploadURL:   true,
	syncproto.MethodGetBackupDownloadURL: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if authenticatedMethods[info.FullMethod] {
		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get("access_token")
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, vaulterrors.ErrTokenExpired.Error())
			}
			return nil, status.Error(codes.Unauthenticated, vaulterrors.ErrInvalidToken.Error())
		}

		ctx = context.WithValue(ctx, userIDKey, userID)
	}

	return handler(ctx, req)
}
