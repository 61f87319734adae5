package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"butler/cli/internal/api"
	"butler/cli/internal/apiclient"
	"butler/cli/internal/application"
)

func taskFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}},
		&cli.IntFlag{Name: "energy", Usage: fmt.Sprintf("energy cost %d..%d", api.MinEnergyCost, api.MaxEnergyCost)},
		&cli.StringFlag{Name: "friction", Usage: "emotional friction: Low, Medium or High"},
		&cli.StringFlag{Name: "value", Usage: "associated core value"},
		&cli.StringFlag{Name: "due", Usage: "due date, YYYY-MM-DD or RFC3339"},
	}
}

func (r *runner) tasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "manage tasks",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list open tasks",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "all", Usage: "include completed tasks"}},
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						if err := app.Tasks.Fetch(ctx, c.Bool("all")); err != nil {
							return err
						}
						tasks := app.Tasks.Tasks()
						return p.emit(tasks, func() {
							if len(tasks) == 0 {
								p.linef("No tasks.")
								return
							}
							for _, t := range tasks {
								p.task(t)
							}
						})
					})
				},
			},
			{
				Name:      "show",
				Usage:     "show one task",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						task, err := app.TaskAPI.GetTask(ctx, c.Args().First())
						if err != nil {
							return err
						}
						return p.emit(task, func() { p.task(task) })
					})
				},
			},
			{
				Name:  "add",
				Usage: "create a task",
				Flags: taskFlags(),
				Action: func(c *cli.Context) error {
					in, err := taskInputFromFlags(c, api.TaskInput{EmotionalFriction: api.FrictionMedium})
					if err != nil {
						return err
					}
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						task, err := app.Tasks.Create(ctx, in)
						if err != nil {
							return err
						}
						return p.emit(task, func() {
							p.linef("Task created.")
							p.task(task)
						})
					})
				},
			},
			{
				Name:      "edit",
				Usage:     "change a task; unset flags keep their current value",
				ArgsUsage: "ID",
				Flags:     taskFlags(),
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						current, err := app.TaskAPI.GetTask(ctx, id)
						if err != nil {
							return err
						}
						in, err := taskInputFromFlags(c, api.TaskInput{
							Title:             current.Title,
							EnergyCost:        current.EnergyCost,
							EmotionalFriction: current.EmotionalFriction,
							AssociatedValue:   current.AssociatedValue,
							DueDate:           current.DueDate,
						})
						if err != nil {
							return err
						}
						task, err := app.Tasks.Update(ctx, id, in)
						if err != nil {
							return err
						}
						return p.emit(task, func() {
							p.linef("Task updated.")
							p.task(task)
						})
					})
				},
			},
			{
				Name:      "done",
				Usage:     "mark a task completed",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						task, err := app.Tasks.Complete(ctx, c.Args().First())
						if err != nil {
							return err
						}
						return p.emit(task, func() {
							p.linef("Task completed.")
							p.task(task)
						})
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "delete a task",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						if err := app.Tasks.Delete(ctx, c.Args().First()); err != nil {
							return err
						}
						return p.message("Task deleted.")
					})
				},
			},
			{
				Name:      "parse",
				Usage:     "turn a sentence into a task draft",
				ArgsUsage: "TEXT...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "create", Usage: "create the parsed task"},
				},
				Action: func(c *cli.Context) error {
					text := strings.Join(c.Args().Slice(), " ")
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						parsed, err := app.TaskAPI.ParseTask(ctx, text)
						if err != nil {
							return err
						}
						if !c.Bool("create") {
							return p.emit(parsed, func() {
								p.linef("%s (energy %d, friction %s)", parsed.Title, parsed.EnergyCost, parsed.EmotionalFriction)
								if parsed.DueDate != nil {
									p.linef("  due %s", parsed.DueDate.Format(time.DateOnly))
								}
							})
						}
						task, err := app.Tasks.Create(ctx, parsed.Input())
						if err != nil {
							return err
						}
						return p.emit(task, func() {
							p.linef("Task created.")
							p.task(task)
						})
					})
				},
			},
		},
	}
}

// taskInputFromFlags overlays the flags that were set onto base.
func taskInputFromFlags(c *cli.Context, base api.TaskInput) (api.TaskInput, error) {
	in := base
	if c.IsSet("title") {
		in.Title = c.String("title")
	}
	if c.IsSet("energy") {
		in.EnergyCost = c.Int("energy")
	}
	if c.IsSet("friction") {
		f, err := api.ParseFriction(c.String("friction"))
		if err != nil {
			return api.TaskInput{}, apiclient.ValidationError("%s", err.Error())
		}
		in.EmotionalFriction = f
	}
	if c.IsSet("value") {
		in.AssociatedValue = strings.TrimSpace(c.String("value"))
	}
	if c.IsSet("due") {
		due, err := parseDue(c.String("due"))
		if err != nil {
			return api.TaskInput{}, err
		}
		in.DueDate = due
	}
	return in, nil
}

// parseDue accepts a date or an RFC3339 timestamp; an empty value clears it.
func parseDue(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
	if err != nil {
		return nil, apiclient.ValidationError("invalid due date %q (want YYYY-MM-DD or RFC3339)", v)
	}
	return &t, nil
}
