// sarthi - A terminal client for HR SARTHI direct messaging.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/cli"
	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/ui/chat"
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	if !cmd.NeedsApp() {
		var err error
		switch cmd {
		case cli.CmdVersion:
			err = cli.HandleVersion(args)
		case cli.CmdHelp:
			err = cli.HandleHelp()
		default:
			err = cli.HandleUnknown(args)
		}
		cli.HandleErrorAndExit(err, args.JSON)
		return
	}

	app, err := cli.Bootstrap(args)
	cli.HandleErrorAndExit(err, args.JSON)

	err = run(app, cmd, args)
	app.Close()
	cli.HandleErrorAndExit(err, args.JSON)
}

func run(app *cli.App, cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdTUI:
		return runTUI(app)
	case cli.CmdChat:
		return cli.HandleChat(app, args)
	case cli.CmdUsers:
		return cli.HandleUsers(app, args)
	case cli.CmdConversations:
		return cli.HandleConversations(app, args)
	case cli.CmdSend:
		return cli.HandleSend(app, args)
	case cli.CmdExport:
		return cli.HandleExport(app, args)
	case cli.CmdLogin:
		return cli.HandleLogin(app, args)
	case cli.CmdLogout:
		return cli.HandleLogout(app, args)
	case cli.CmdWhoami:
		return cli.HandleWhoami(app, args)
	case cli.CmdConfig:
		return cli.HandleConfig(app, args)
	case cli.CmdStatus:
		return cli.HandleStatus(app, args)
	default:
		return cli.HandleUnknown(args)
	}
}

// runTUI starts the full-screen client. Without a login it still starts and
// shows the signed-out screen; the refresh key picks up a later login.
func runTUI(app *cli.App) error {
	if err := cli.RequiresTTY("run the interactive client"); err != nil {
		return err
	}
	if _, err := app.SignIn(); err != nil && !errors.Is(err, cli.ErrNotSignedIn) {
		return err
	}

	cfg := app.Config
	model := chat.New(chat.Options{
		Theme:    styles.NewTheme(cfg.UI.Theme),
		Config:   cfg,
		Sessions: app.Sessions,
		Backend:  backendFactory(app),
		Tokens: func() (string, error) {
			token, _, err := app.Token()
			return token, err
		},
		Logger: app.Logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if app.ConfigExists {
		go func() {
			err := config.Watch(ctx, app.ConfigPath, config.DefaultDebounce, func(next *config.Config, err error) {
				p.Send(chat.ConfigChangedMsg{Config: next, Err: err})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				app.Logger.Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// backendFactory builds the per-identity backend the TUI asks for after
// every sign-in.
func backendFactory(app *cli.App) chat.BackendFactory {
	return func(token string) (chat.Backend, error) {
		b := chat.Backend{Service: app.NewService(token)}
		// A nil *Channel must not become a non-nil Realtime.
		if ch := app.NewChannel(token); ch != nil {
			b.Realtime = ch
		}
		return b, nil
	}
}

