package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vaultmerge/vaultmerge/internal/syncproto"
	"github.com/vaultmerge/vaultmerge/internal/vault"
	"github.com/vaultmerge/vaultmerge/internal/vaulterrors"
)

func (s *GRPCServer) RegisterUser(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := &syncproto.RegisterUserRequest{}
	if err := syncproto.Decode(env, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Info(ctx, "registration request", "username", req.Username)

	result, err := s.users.Register(ctx, req.Username, req.Salt, req.Verifier)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, err.Error())
	}

	s.logger.Info(ctx, "registered", "username", req.Username)
	return syncproto.Encode(&syncproto.RegisterUserResponse{UserID: result.ID})
}

func (s *GRPCServer) GetSalt(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := &syncproto.GetSaltRequest{}
	if err := syncproto.Decode(env, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	salt, err := s.users.GetSalt(ctx, req.Username)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return syncproto.Encode(&syncproto.GetSaltResponse{Salt: salt})
}

func (s *GRPCServer) Login(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := &syncproto.LoginRequest{}
	if err := syncproto.Decode(env, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tokens, err := s.users.Login(ctx, req.Username, req.VerifierCandidate)
	if err != nil {
		if errors.Is(err, vaulterrors.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return syncproto.Encode(&syncproto.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *GRPCServer) RefreshToken(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := &syncproto.RefreshTokenRequest{}
	if err := syncproto.Decode(env, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, vaulterrors.ErrRefreshTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "refresh token expired")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return syncproto.Encode(&syncproto.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *GRPCServer) Ping(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return syncproto.Encode(&syncproto.PingResponse{Status: "OK"})
}

// Sync merges a caller-submitted vault snapshot against the stored copy for
// the authenticated user and returns the merged result. The user ID comes
// from the access token, not the request body: accessTokenInterceptor puts
// it on the context before this handler runs.
func (s *GRPCServer) Sync(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	req := &syncproto.SyncRequest{}
	if err := syncproto.Decode(env, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var snapshot vault.Snapshot
	if err := json.Unmarshal(req.Snapshot, &snapshot); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	merged, changes, err := s.vaultSync.Sync(ctx, userID, &snapshot)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, err.Error())
	}

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return syncproto.Encode(&syncproto.SyncResponse{Snapshot: mergedJSON, Changes: changes})
}

// GetBackupUploadURL issues a presigned S3 PUT URL for the authenticated
// user's next full-vault backup.
func (s *GRPCServer) GetBackupUploadURL(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	storageKey, url, err := s.backup.GetUploadURL(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, err.Error())
	}

	return syncproto.Encode(&syncproto.GetBackupUploadURLResponse{StorageKey: storageKey, URL: url})
}

// GetBackupDownloadURL issues a presigned S3 GET URL for a previously
// uploaded backup.
func (s *GRPCServer) GetBackupDownloadURL(ctx context.Context, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if _, err := userIDFromContext(ctx); err != nil {
		return nil, err
	}

	req := &syncproto.GetBackupDownloadURLRequest{}
	if err := syncproto.Decode(env, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	url, err := s.backup.GetDownloadURL(ctx, req.StorageKey)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, err.Error())
	}

	return syncproto.Encode(&syncproto.GetBackupDownloadURLResponse{URL: url})
}

func userIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userIDStr, ok := ctx.Value(userIDKey).(string)
	if !ok || userIDStr == "" {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing user id")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "invalid user id")
	}
	return userID, nil
}
