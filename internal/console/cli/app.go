// Package cli implements the interactive distribution console. One binary
// serves all three console variants; the configured role decides which
// collections the session sees and how remote rows are scoped.
package cli

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/avetikov/ledgersync/internal/console/config"
	"github.com/avetikov/ledgersync/internal/filex"
	"github.com/avetikov/ledgersync/internal/logging"
	"github.com/avetikov/ledgersync/internal/remote"
	"github.com/avetikov/ledgersync/internal/session"
	"github.com/avetikov/ledgersync/internal/store"
	"github.com/avetikov/ledgersync/internal/syncer"

	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	store  *store.Store
	source remote.Source
	auth   *session.Authenticator
	engine *syncer.Engine
	log    logging.Logger

	sess   *session.Context
	reader *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dsn := c.LocalDSN
	if dsn != ":memory:" {
		abs, err := filex.EnsureParentDir(dsn)
		if err != nil {
			return nil, err
		}
		dsn = abs
	}

	db, err := store.Open(ctx, dsn, log)
	if err != nil {
		log.Error(ctx, "error opening local database", "error", err)
		return nil, err
	}

	var source remote.Source
	if pg, err := remote.OpenPostgres(ctx, c.RemoteDSN); err != nil {
		// The console still opens against local data; sync and online
		// login stay unavailable until the cloud is reachable.
		log.Warn(ctx, "cloud document store unreachable, starting offline", "error", err)
	} else {
		source = pg
	}

	auth := session.NewAuthenticator(source, db, []byte(c.SecretKey), 24*time.Hour)
	engine := syncer.New(db, source, log)

	return &App{
		config: c,
		store:  db,
		source: source,
		auth:   auth,
		engine: engine,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.sess != nil
}

func (a *App) isOnline() bool {
	return a.source != nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	if a.source != nil {
		_ = a.source.Close()
	}
	_ = a.store.Close()
}
