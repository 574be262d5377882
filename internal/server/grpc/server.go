package grpc

import (
	"context"
	"net"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/vaultmerge/vaultmerge/internal/logging"
	"github.com/vaultmerge/vaultmerge/internal/server/models"
	"github.com/vaultmerge/vaultmerge/internal/server/services"
	"github.com/vaultmerge/vaultmerge/internal/syncproto"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// userSvc is the subset of services.UserService the handlers need. GRPCServer
// depends on this interface, not the concrete type, so tests can substitute
// a fake.
type userSvc interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifierCandidate []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// vaultSyncSvc is the subset of services.VaultSyncService the Sync handler needs.
type vaultSyncSvc interface {
	Sync(ctx context.Context, userID uuid.UUID, clientSnapshot *vault.Snapshot) (*vault.Snapshot, []string, error)
}

// backupSvc is the subset of services.BackupService the backup handlers need.
type backupSvc interface {
	GetUploadURL(ctx context.Context, userID uuid.UUID) (storageKey, url string, err error)
	GetDownloadURL(ctx context.Context, storageKey string) (string, error)
}

// GRPCServer implements syncproto.Server: authentication plus the vault sync
// RPC, over the wrapperspb.BytesValue envelope described in internal/syncproto.
type GRPCServer struct {
	address   string
	users     userSvc
	vaultSync vaultSyncSvc
	backup    backupSvc
	logger    logging.Logger
	jwtSecret []byte
}

// NewGRPCServer constructs a GRPCServer bound to address a.
func NewGRPCServer(a string, l logging.Logger, us *services.UserService, vs *services.VaultSyncService, bs *services.BackupService, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		vaultSync: vs,
		backup:    bs,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Run starts serving on GRPCServer's address until ctx is canceled, at which
// point it gracefully stops.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv.RegisterService(&syncproto.ServiceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping gRPC server")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
