package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/config"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/groups"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/orgkeeper/internal/client/services"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// session is everything that exists only while a keyring is unlocked.
type session struct {
	keyring     *cryptox.Keyring
	crypto      *cryptox.Provider
	sync        services.SyncService
	resources   services.ResourceService
	unsubscribe func()
}

type App struct {
	config      *config.Config
	log         logging.Logger
	db          *sql.DB
	exec        *dbx.Executor
	apiClient   client.Client
	authService services.AuthService
	directory   services.DirectoryService
	folders     services.FolderService

	session  *session
	userName string

	mu       sync.Mutex
	mode     Mode
	lastSync time.Time

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewOrgKeeperClient(c.ServerEndpointAddr, c.TokenRefreshSkew)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	exec := dbx.NewExecutor(db)
	return &App{
		config:      c,
		log:         log,
		db:          db,
		exec:        exec,
		apiClient:   apiClient,
		authService: services.NewAuthService(apiClient, exec, log),
		directory:   services.NewDirectoryService(apiClient, exec, log),
		folders:     services.NewFolderService(apiClient, exec, log),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// startSession wires the services that need the unlocked keyring.
func (a *App) startSession(kr *cryptox.Keyring) {
	crypto := cryptox.NewProvider(kr, users.NewSQLiteRepository(a.exec.DB()))
	codec := services.NewMetadataCodec(crypto, a.config.MetadataEnabled)
	ingestion := services.NewIngestionService(a.apiClient, codec, a.exec, services.NewTypeCache(), services.IngestionConfig{
		AllowConcurrentPageFetch: a.config.AllowConcurrentPageFetch,
		MaxConcurrentPages:       a.config.MaxConcurrentPages,
		MetadataEnabled:          a.config.MetadataEnabled,
	}, a.log)
	syncSvc := services.NewSyncService(a.directory, a.folders, ingestion, a.exec, services.SyncConfig{
		FoldersEnabled: a.config.FoldersEnabled,
		PageSize:       a.config.PageSize,
	}, a.log)
	a.authService.SetSyncCanceller(syncSvc)

	events, unsubscribe := syncSvc.Subscribe()
	go func() {
		for ev := range events {
			a.mu.Lock()
			a.lastSync = ev.CompletedAt
			a.mu.Unlock()
		}
	}()

	a.session = &session{
		keyring:     kr,
		crypto:      crypto,
		sync:        syncSvc,
		resources:   services.NewResourceService(a.exec.DB(), crypto),
		unsubscribe: unsubscribe,
	}
}

func (a *App) endSession() {
	if a.session == nil {
		return
	}
	a.session.sync.Cancel()
	a.session.unsubscribe()
	a.session.keyring.Wipe()
	a.session = nil
	a.userName = ""
}

func (a *App) shareDeps() services.ShareDeps {
	return services.ShareDeps{
		Client: a.apiClient,
		Groups: groups.NewSQLiteRepository(a.exec.DB()),
		Crypto: a.session.crypto,
		Log:    a.log,
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		a.endSession()
		_ = a.authService.Close(ctx)
		_ = a.db.Close()
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode between online and offline until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(pingCtx)
	cancel()

	switch {
	case err != nil && a.Mode() == ModeOnline:
		a.setMode(ModeOffline)
	case err == nil && a.Mode() != ModeOnline:
		a.setMode(ModeOnline)
	}
}
