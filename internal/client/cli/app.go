// Package cli implements the vaultmerge command-line client: a small REPL
// over a local vault cache that stays usable offline and reconciles with the
// server through a structural merge on demand.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vaultmerge/vaultmerge/internal/client/config"
	"github.com/vaultmerge/vaultmerge/internal/client/grpcclient"
	"github.com/vaultmerge/vaultmerge/internal/client/localstore"
	"github.com/vaultmerge/vaultmerge/internal/client/services"
)

// Mode reflects whether the CLI currently believes it can reach the server.
type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// App owns the CLI's session state: configuration, the gRPC connection, the
// local vault cache, and the currently logged-in user (if any).
type App struct {
	config        *config.Config
	authService   services.AuthService
	vaultService  services.VaultService
	backupService services.BackupService
	userName      string
	Mode          Mode
	reader        *bufio.Reader
}

// NewApp wires the local cache, gRPC client, and application services
// together into a runnable App.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	store, err := localstore.Open(ctx, c.VaultPath)
	if err != nil {
		log.Printf("error opening local vault cache: %s", err.Error())
		return nil, err
	}

	rpc, err := grpcclient.Dial(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	as := services.NewAuthService(rpc, store)
	vs := services.NewVaultService(rpc, store)
	bs := services.NewBackupService(rpc)

	app := &App{config: c, authService: as, vaultService: vs, backupService: bs, reader: bufio.NewReader(os.Stdin)}

	if username, ok, err := as.RestoreSession(ctx); err == nil && ok {
		app.userName = username
	}
	if err := vs.Load(ctx); err != nil {
		log.Printf("warning: could not load cached vault: %s", err.Error())
	}

	return app, nil
}

func (app *App) setMode(mode Mode) {
	if app.Mode != mode {
		app.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.authService.Close() }()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// StartOnlineStatusWatcher periodically pings the server and flips Mode
// between online and offline as reachability changes.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.authService.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else if a.Mode != ModeOnline {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
