package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"butler/cli/internal/application"
)

func (r *runner) themeCommand() *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "display theme preference (light, dark or system)",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "print the stored theme",
				Action: func(c *cli.Context) error {
					return r.with(c, anyone, func(ctx context.Context, app *application.Application, p printer) error {
						theme, err := app.Prefs.Theme(ctx)
						if err != nil {
							return err
						}
						return p.emit(map[string]string{"theme": theme}, func() { p.linef("%s", theme) })
					})
				},
			},
			{
				Name:      "set",
				Usage:     "store a theme",
				ArgsUsage: "light|dark|system",
				Action: func(c *cli.Context) error {
					return r.with(c, anyone, func(ctx context.Context, app *application.Application, p printer) error {
						if err := app.Prefs.SetTheme(ctx, c.Args().First()); err != nil {
							return err
						}
						theme, err := app.Prefs.Theme(ctx)
						if err != nil {
							return err
						}
						return p.message("Theme set to " + theme + ".")
					})
				},
			},
		},
	}
}
