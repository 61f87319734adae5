package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"gorm.io/gorm"

	"butler/cli/internal/api"
	"butler/cli/internal/apiclient"
	"butler/cli/internal/db"
	"butler/cli/internal/lifecycle"
	"butler/cli/internal/session"
	"butler/cli/internal/taskstate"
	"butler/cli/internal/tokenstore"
)

// Application holds every client component, built once per process.
type Application struct {
	Tokens  *tokenstore.Store
	Prefs   *tokenstore.PrefsStore
	Client  *apiclient.Client
	Auth    *api.AuthAPI
	TaskAPI *api.TaskAPI
	Butler  *api.ButlerAPI
	Chat    *api.ChatAPI
	Session *session.Manager
	Tasks   *taskstate.Store

	dbPath      string
	db          *gorm.DB
	logger      *slog.Logger
	unsubscribe func()
	closeOnce   sync.Once
	closeErr    error
}

func StartApplication(ctx context.Context, opts StartOptions) (*Application, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dbPath := strings.TrimSpace(opts.DBPath)
	if dbPath == "" {
		dbPath = strings.TrimSpace(opts.Config.DBPath)
	}
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}

	gdb, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	app := &Application{dbPath: dbPath, db: gdb, logger: logger}
	if err := app.wire(opts); err != nil {
		_ = db.Close(gdb)
		return nil, err
	}

	if opts.Restore {
		if err := app.Session.Restore(ctx); err != nil {
			logger.Info("session restore failed", "err", err)
		}
	}
	return app, nil
}

func (a *Application) wire(opts StartOptions) error {
	var err error
	if a.Tokens, err = tokenstore.NewStore(a.db); err != nil {
		return err
	}
	if a.Prefs, err = tokenstore.NewPrefsStore(a.db); err != nil {
		return err
	}
	a.Client, err = apiclient.New(apiclient.Options{
		BaseURL:     opts.Config.APIBaseURL,
		Timeout:     opts.Config.RequestTimeout,
		TokenSource: a.Tokens,
		HTTPClient:  opts.HTTPClient,
		Logger:      a.logger.With("component", "apiclient"),
	})
	if err != nil {
		return err
	}
	a.Auth = api.NewAuthAPI(a.Client)
	a.TaskAPI = api.NewTaskAPI(a.Client)
	a.Butler = api.NewButlerAPI(a.Client)
	a.Chat = api.NewChatAPI(a.Client)

	a.Session, err = session.NewManager(session.Options{
		Auth:   a.Auth,
		Butler: a.Butler,
		Tokens: a.Tokens,
		Logger: a.logger.With("component", "session"),
	})
	if err != nil {
		return err
	}
	a.Tasks, err = taskstate.NewStore(a.TaskAPI, a.logger.With("component", "taskstate"))
	if err != nil {
		return err
	}
	a.unsubscribe = a.Session.Subscribe(func(snap session.Snapshot) {
		if snap.State == session.StateUnauthenticated {
			a.Tasks.Clear()
		}
	})
	return nil
}

func (a *Application) DBPath() string {
	if a == nil {
		return ""
	}
	return a.dbPath
}

// Run executes fn under the lifecycle manager and closes the application
// when fn returns or ctx ends.
func (a *Application) Run(ctx context.Context, fn func(context.Context) error) error {
	mgr := lifecycle.NewManager()
	mgr.SetLogger(a.logger)
	mgr.AddRun("command", fn)
	mgr.AddShutdown("close-db", func(context.Context) error {
		return a.Close()
	})
	return mgr.StartAndWait(ctx)
}

// Close releases the local database. It is safe to call more than once.
func (a *Application) Close() error {
	if a == nil {
		return nil
	}
	a.closeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.db != nil {
			a.closeErr = db.Close(a.db)
		}
	})
	return a.closeErr
}
