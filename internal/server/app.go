// Package server wires together configuration, storage, and the gRPC sync
// endpoint into a runnable application, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vaultmerge/vaultmerge/internal/logging"
	"github.com/vaultmerge/vaultmerge/internal/server/config"
	gs "github.com/vaultmerge/vaultmerge/internal/server/grpc"
	"github.com/vaultmerge/vaultmerge/internal/server/repositories/repomanager"
	"github.com/vaultmerge/vaultmerge/internal/server/services"
)

// App owns the process-wide dependencies: config, logger, the DB pool, and
// the services the gRPC endpoint dispatches to.
type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	userService   *services.UserService
	vaultService  *services.VaultSyncService
	backupService *services.BackupService
}

// NewApp takes the loaded configuration, opens the database, runs pending
// migrations, and constructs the services the gRPC server needs.
func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	repos, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := services.NewUserService(db, repos, c)
	vs := services.NewVaultSyncService(db, repos)
	bs := services.NewBackupService(c)

	return &App{config: c, logger: logger, db: db, userService: us, vaultService: vs, backupService: bs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.vaultService, app.backupService, app.config.SecretKey)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run starts the gRPC server and blocks until an OS signal or a startup
// failure triggers shutdown.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer func() { _ = app.db.Close() }()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
