package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"butler/cli/internal/api"
	"butler/cli/internal/application"
	"butler/cli/internal/config"
)

func pollOptions(cfg config.Config) api.PollOptions {
	return api.PollOptions{MaxAttempts: cfg.PollAttempts, Interval: cfg.PollInterval}
}

func (r *runner) moodCommand() *cli.Command {
	return &cli.Command{
		Name:  "mood",
		Usage: "check in with the butler",
		Subcommands: []*cli.Command{
			{
				Name:  "log",
				Usage: "record how you feel and get a recommendation",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mood", Aliases: []string{"m"}, Required: true},
					&cli.IntFlag{Name: "energy", Required: true, Usage: "energy level 1..10"},
					&cli.StringFlag{Name: "note", Usage: "free text for the butler"},
					&cli.BoolFlag{Name: "wait", Usage: "poll for a recommendation when none came back"},
				},
				Action: func(c *cli.Context) error {
					in := api.MoodInput{Mood: c.String("mood"), Energy: c.Int("energy"), RawInput: c.String("note")}
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						res, err := api.LogMood(ctx, app.Butler, in)
						if err != nil {
							return err
						}
						if c.Bool("wait") && res.Recommendation == "" && res.ContextLogID != "" {
							rec, ok, err := app.Butler.AwaitRecommendation(ctx, res.ContextLogID, pollOptions(loadConfig(r.deps)))
							if err != nil {
								return err
							}
							if ok {
								res.Recommendation = rec
								res.Degraded = false
								res.Message = "Mood logged."
							}
						}
						return p.emit(res, func() {
							p.linef("%s", res.Message)
							if res.Recommendation != "" {
								p.linef("butler: %s", res.Recommendation)
							}
						})
					})
				},
			},
			{
				Name:  "history",
				Usage: "list recent check-ins",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Aliases: []string{"n"}}},
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						limit := c.Int("limit")
						if limit <= 0 {
							limit = loadConfig(r.deps).HistoryLimit
						}
						entries, err := app.Butler.GetHistory(ctx, limit)
						if err != nil {
							return err
						}
						return p.emit(entries, func() {
							if len(entries) == 0 {
								p.linef("No check-ins yet.")
								return
							}
							for _, e := range entries {
								p.moodEntry(e)
							}
						})
					})
				},
			},
			{
				Name:      "show",
				Usage:     "show one check-in",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						entry, err := app.Butler.GetMood(ctx, c.Args().First())
						if err != nil {
							return err
						}
						return p.emit(entry, func() { p.moodEntry(entry) })
					})
				},
			},
			{
				Name:      "edit",
				Usage:     "correct a check-in",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mood", Aliases: []string{"m"}},
					&cli.IntFlag{Name: "energy"},
					&cli.StringFlag{Name: "note"},
				},
				Action: func(c *cli.Context) error {
					var patch api.MoodPatch
					if c.IsSet("mood") {
						v := c.String("mood")
						patch.Mood = &v
					}
					if c.IsSet("energy") {
						v := c.Int("energy")
						patch.EnergyLevel = &v
					}
					if c.IsSet("note") {
						v := c.String("note")
						patch.RawInput = &v
					}
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						entry, err := app.Butler.UpdateMood(ctx, c.Args().First(), patch)
						if err != nil {
							return err
						}
						return p.emit(entry, func() {
							p.linef("Check-in updated.")
							p.moodEntry(entry)
						})
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "delete a check-in",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						if err := app.Butler.DeleteMood(ctx, c.Args().First()); err != nil {
							return err
						}
						return p.message("Check-in deleted.")
					})
				},
			},
			{
				Name:      "await",
				Usage:     "wait for the butler's recommendation on a check-in",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						rec, ok, err := app.Butler.AwaitRecommendation(ctx, c.Args().First(), pollOptions(loadConfig(r.deps)))
						if err != nil {
							return err
						}
						if !ok {
							return p.message("No recommendation yet. Try again later.")
						}
						return p.emit(map[string]string{"recommendation": rec}, func() { p.linef("butler: %s", rec) })
					})
				},
			},
		},
	}
}
