package command

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v2"

	"butler/cli/internal/api"
	"butler/cli/internal/application"
	"butler/cli/internal/session"
)

func passwordFlag(name, usage, env string) *cli.StringFlag {
	f := &cli.StringFlag{Name: name, Usage: usage}
	if env != "" {
		f.EnvVars = []string{env}
	}
	return f
}

func (r *runner) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and remember the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
			passwordFlag("password", "account password", "BUTLER_PASSWORD"),
		},
		Action: func(c *cli.Context) error {
			return r.with(c, anyone, func(ctx context.Context, app *application.Application, p printer) error {
				if err := app.Session.SignIn(ctx, c.String("email"), c.String("password")); err != nil {
					return err
				}
				return p.emit(app.Session.Snapshot().User, func() {
					p.linef("Signed in as %s.", app.Session.Snapshot().User.Username)
				})
			})
		},
	}
}

func (r *runner) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
			passwordFlag("password", "account password", "BUTLER_PASSWORD"),
			passwordFlag("confirm", "repeat the password", ""),
			&cli.StringSliceFlag{Name: "value", Usage: "core value (repeatable)"},
			&cli.BoolFlag{Name: "no-login", Usage: "create the account without signing in"},
		},
		Action: func(c *cli.Context) error {
			in := session.SignUpInput{
				Username:        c.String("username"),
				Email:           c.String("email"),
				Password:        c.String("password"),
				ConfirmPassword: c.String("confirm"),
				CoreValues:      c.StringSlice("value"),
			}
			return r.with(c, anyone, func(ctx context.Context, app *application.Application, p printer) error {
				if c.Bool("no-login") {
					if err := session.ValidateSignUp(in); err != nil {
						return err
					}
					res, err := app.Auth.Register(ctx, api.RegisterInput{
						Username:   strings.TrimSpace(in.Username),
						Email:      strings.TrimSpace(in.Email),
						Password:   in.Password,
						CoreValues: in.CoreValues,
					})
					if err != nil {
						return err
					}
					msg := strings.TrimSpace(res.Message)
					if msg == "" {
						msg = "Account created."
					}
					return p.message(msg + " Sign in with `butler login`.")
				}
				if err := app.Session.SignUp(ctx, in); err != nil {
					return err
				}
				return p.emit(app.Session.Snapshot().User, func() {
					p.linef("Welcome, %s. You are signed in.", app.Session.Snapshot().User.Username)
				})
			})
		},
	}
}

func (r *runner) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session",
		Action: func(c *cli.Context) error {
			return r.with(c, anyone, func(ctx context.Context, app *application.Application, p printer) error {
				app.Session.SignOut(ctx)
				return p.message("Signed out.")
			})
		},
	}
}

func (r *runner) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed-in user",
		Action: func(c *cli.Context) error {
			return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
				user := *app.Session.Snapshot().User
				return p.emit(user, func() { p.user(user) })
			})
		},
	}
}

func (r *runner) profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "manage your account",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "change profile fields; only the flags you pass are sent",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username"},
					&cli.StringFlag{Name: "email"},
					&cli.IntFlag{Name: "baseline-energy"},
					&cli.StringSliceFlag{Name: "value", Usage: "core value (repeatable, replaces the list)"},
					&cli.StringFlag{Name: "health"},
					&cli.StringFlag{Name: "career"},
					&cli.StringFlag{Name: "relationships"},
					&cli.StringSliceFlag{Name: "preference", Usage: "preference (repeatable, replaces the list)"},
				},
				Action: func(c *cli.Context) error {
					patch := profilePatchFromFlags(c)
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						user, err := app.Session.UpdateProfile(ctx, patch)
						if err != nil {
							return err
						}
						return p.emit(user, func() {
							p.linef("Profile updated.")
							p.user(user)
						})
					})
				},
			},
			{
				Name:  "password",
				Usage: "change your password",
				Flags: []cli.Flag{
					passwordFlag("current", "current password", ""),
					passwordFlag("new", "new password", ""),
					passwordFlag("confirm", "repeat the new password", ""),
				},
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						msg, err := app.Session.ChangePassword(ctx, c.String("current"), c.String("new"), c.String("confirm"))
						if err != nil {
							return err
						}
						return p.message(orDefault(msg, "Password changed."))
					})
				},
			},
			{
				Name:  "delete",
				Usage: "permanently delete your account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "confirm deletion"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("yes") {
						return errors.New("refusing to delete the account without --yes")
					}
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						msg, err := app.Session.DeleteAccount(ctx)
						if err != nil {
							return err
						}
						return p.message(orDefault(msg, "Account deleted."))
					})
				},
			},
		},
	}
}

func profilePatchFromFlags(c *cli.Context) api.ProfilePatch {
	var patch api.ProfilePatch
	if c.IsSet("username") {
		v := c.String("username")
		patch.Username = &v
	}
	if c.IsSet("email") {
		v := c.String("email")
		patch.Email = &v
	}
	if c.IsSet("baseline-energy") {
		v := c.Int("baseline-energy")
		patch.BaselineEnergy = &v
	}
	if c.IsSet("value") {
		v := c.StringSlice("value")
		patch.CoreValues = &v
	}
	if c.IsSet("health") {
		v := c.String("health")
		patch.HealthContext = &v
	}
	if c.IsSet("career") {
		v := c.String("career")
		patch.CareerContext = &v
	}
	if c.IsSet("relationships") {
		v := c.String("relationships")
		patch.RelationshipContext = &v
	}
	if c.IsSet("preference") {
		v := c.StringSlice("preference")
		patch.Preferences = &v
	}
	return patch
}

func (r *runner) butlerCommand() *cli.Command {
	return &cli.Command{
		Name:  "butler",
		Usage: "tune what the butler knows about you",
		Subcommands: []*cli.Command{
			{
				Name:  "profile",
				Usage: "update core values and baseline energy",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "value", Usage: "core value (repeatable, replaces the list)"},
					&cli.IntFlag{Name: "baseline-energy"},
				},
				Action: func(c *cli.Context) error {
					var patch api.ButlerProfilePatch
					if c.IsSet("value") {
						v := c.StringSlice("value")
						patch.CoreValues = &v
					}
					if c.IsSet("baseline-energy") {
						v := c.Int("baseline-energy")
						patch.BaselineEnergy = &v
					}
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						user, err := app.Session.UpdateButlerProfile(ctx, patch)
						if err != nil {
							return err
						}
						return p.emit(user, func() {
							p.linef("Butler profile updated.")
							p.user(user)
						})
					})
				},
			},
		},
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
