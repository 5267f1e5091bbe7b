// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - Export command implementation for sarthi.
//
// Command: export <user>
//
// Flags:
//   --format FORMAT     markdown (default), json or html
//   -o, --output DIR    Directory to write to (default: current directory)
//   --open              Open the file when done

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/export"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// ExportData is the JSON output of the export command.
type ExportData struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	UserID   string `json:"user_id"`
	Messages int    `json:"messages"`
}

// HandleExport writes one conversation to a file.
func HandleExport(app *App, args Args) error {
	if strings.TrimSpace(args.User) == "" {
		return ErrMissingArgument("user", "sarthi export <user> --format markdown")
	}

	opts := export.DefaultOptions()
	opts.OutputDir = args.Output
	opts.OpenAfterExport = args.Open
	if app.Config.UI.Theme == "light" {
		opts.Theme = "light"
	}
	exporter, err := export.ForFormat(args.Format, opts)
	if err != nil {
		return NewValidationErrorWithExample("format", args.Format, err.Error(), "--format markdown")
	}

	return OutputJSON(args.JSON, "export", func() (interface{}, error) {
		self, svc, err := app.online()
		if err != nil {
			return nil, err
		}
		ctx := context.Background()
		user, _, err := resolveCounterpart(ctx, svc, self, args.User)
		if err != nil {
			return nil, err
		}
		msgs, err := svc.LoadHistory(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		t := export.Transcript{
			SelfID:      self.UserID,
			SelfName:    self.DisplayName(),
			Counterpart: user,
			Messages:    msgs,
			ExportedAt:  time.Now(),
		}
		path, err := export.ToFile(t, exporter, opts)
		if errors.Is(err, export.ErrEmpty) {
			return nil, NewValidationError("user", args.User, "no messages with "+user.DisplayName()+" yet")
		}
		if err != nil && path == "" {
			return nil, err
		}
		if err != nil {
			StderrPrintln(WarningStyle.Render("Warning:") + " " + err.Error())
		}
		app.Logger.Info("conversation exported",
			zap.String("user_id", user.ID),
			zap.String("format", exporter.FileExtension()),
			zap.Int("messages", len(msgs)))

		if args.JSON {
			return ExportData{
				Path:     path,
				Format:   exporter.MimeType(),
				UserID:   user.ID,
				Messages: len(msgs),
			}, nil
		}
		fmt.Printf("%s Exported %s with %s to %s\n", SuccessStyle.Render("[OK]"),
			util.Plural(len(msgs), "message"), PeerStyle.Render(user.DisplayName()), path)
		return nil, nil
	})
}
