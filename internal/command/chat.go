package command

import (
	"context"
	"strings"

	"github.com/urfave/cli/v2"

	"butler/cli/internal/application"
)

func (r *runner) chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "talk to the butler",
		Subcommands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "send a message and print the reply",
				ArgsUsage: "MESSAGE...",
				Action: func(c *cli.Context) error {
					text := strings.Join(c.Args().Slice(), " ")
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						res, err := app.Chat.Send(ctx, text)
						if err != nil {
							return err
						}
						return p.emit(res, func() { p.linef("butler: %s", res.Reply.Content) })
					})
				},
			},
			{
				Name:  "history",
				Usage: "show the conversation",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Aliases: []string{"n"}}},
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						limit := c.Int("limit")
						if limit <= 0 {
							limit = loadConfig(r.deps).HistoryLimit
						}
						msgs, err := app.Chat.History(ctx, limit)
						if err != nil {
							return err
						}
						return p.emit(msgs, func() {
							if len(msgs) == 0 {
								p.linef("No messages yet.")
								return
							}
							for _, m := range msgs {
								p.chatMessage(m)
							}
						})
					})
				},
			},
			{
				Name:      "show",
				Usage:     "show one message",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						msg, err := app.Chat.Get(ctx, c.Args().First())
						if err != nil {
							return err
						}
						return p.emit(msg, func() { p.chatMessage(msg) })
					})
				},
			},
			{
				Name:      "edit",
				Usage:     "rewrite one of your messages",
				ArgsUsage: "ID CONTENT...",
				Action: func(c *cli.Context) error {
					args := c.Args().Slice()
					id, content := "", ""
					if len(args) > 0 {
						id = args[0]
						content = strings.Join(args[1:], " ")
					}
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						msg, err := app.Chat.Update(ctx, id, content)
						if err != nil {
							return err
						}
						return p.emit(msg, func() { p.chatMessage(msg) })
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "delete one message",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						res, err := app.Chat.Delete(ctx, c.Args().First())
						if err != nil {
							return err
						}
						return p.message(orDefault(res.Message, "Message deleted."))
					})
				},
			},
			{
				Name:  "clear",
				Usage: "delete the whole conversation",
				Action: func(c *cli.Context) error {
					return r.with(c, signedIn, func(ctx context.Context, app *application.Application, p printer) error {
						res, err := app.Chat.Clear(ctx)
						if err != nil {
							return err
						}
						return p.emit(res, func() {
							p.linef("%s (%d deleted)", orDefault(res.Message, "Chat history cleared."), res.DeletedCount)
						})
					})
				},
			},
		},
	}
}
