package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"butler/cli/internal/application"
	"butler/cli/internal/config"
	"butler/cli/internal/db"
)

type Deps struct {
	LoadConfig   func() config.Config
	Start        func(context.Context, application.StartOptions) (*application.Application, error)
	RunMigrateUp func(context.Context, config.Config) error
	Logger       *slog.Logger
	Out          io.Writer
}

func BuildApp(deps Deps) *cli.App {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	r := &runner{deps: deps, out: out}
	return &cli.App{
		Name:   "butler",
		Usage:  "AI butler client: account, tasks, mood check-ins and chat",
		Writer: out,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
		},
		Commands: []*cli.Command{
			r.loginCommand(),
			r.registerCommand(),
			r.logoutCommand(),
			r.whoamiCommand(),
			r.profileCommand(),
			r.tasksCommand(),
			r.moodCommand(),
			r.butlerCommand(),
			r.chatCommand(),
			r.themeCommand(),
			{
				Name:  "migrate",
				Usage: "run database migration",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply pending migrations",
						Action: func(c *cli.Context) error {
							cfg := loadConfig(deps)
							return runMigrateUp(c.Context, deps, cfg)
						},
					},
				},
			},
		},
	}
}

type runner struct {
	deps Deps
	out  io.Writer
}

// access controls whether a command restores and requires a signed-in user.
type access int

const (
	anyone access = iota
	signedIn
)

func (r *runner) with(c *cli.Context, mode access, fn func(context.Context, *application.Application, printer) error) error {
	cfg := loadConfig(r.deps)
	logger := r.deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.FileErr != nil {
		logger.Warn("config file unreadable, using defaults", "err", cfg.FileErr)
	}
	start := r.deps.Start
	if start == nil {
		start = application.StartApplication
	}
	app, err := start(c.Context, application.StartOptions{
		Config:  cfg,
		Logger:  logger,
		Restore: mode == signedIn,
	})
	if err != nil {
		return err
	}
	p := printer{w: r.out, json: c.Bool("json")}
	return app.Run(c.Context, func(ctx context.Context) error {
		if mode == signedIn && !app.Session.IsAuthenticated() {
			return errNotSignedIn
		}
		return fn(ctx, app, p)
	})
}

var errNotSignedIn = errors.New("not signed in; run `butler login` first")

func loadConfig(deps Deps) config.Config {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return *config.GetConfig()
}

func runMigrateUp(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunMigrateUp != nil {
		return deps.RunMigrateUp(ctx, cfg)
	}
	sqlDB, err := db.OpenSQLiteWithMigrations(cfg.DBPath)
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
