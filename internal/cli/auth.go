// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - login, logout and whoami.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/session"
)

// HandleLogin validates a token and stores it sealed. The token comes from
// the argument, from stdin for "-", or from a hidden prompt.
func HandleLogin(app *App, args Args) error {
	token, err := readToken(args.Token)
	if err != nil {
		return err
	}

	id, err := session.FromToken(token)
	if err != nil {
		return NewValidationError("token", "", err.Error())
	}
	if id.Expired(time.Now()) {
		return NewValidationError("token", "", "token expired "+formatDuration(time.Since(id.ExpiresAt))+" ago")
	}

	if err := app.Tokens.Save(token); err != nil {
		return NewCommandError("login", "save", "could not store the token", err)
	}
	app.Logger.Info("login stored", zap.String("user_id", id.UserID))

	if args.JSON {
		return NewJSONResponse("login", identityData(id, TokenFromStore)).Print()
	}
	fmt.Printf("%s Signed in as %s\n", SuccessStyle.Render("[OK]"), describeIdentity(id))
	if app.Config.Auth.Token != "" {
		StderrPrintln(WarningStyle.Render("Note:") + " SARTHI_TOKEN is set and takes precedence over the stored login.")
	}
	return nil
}

// readToken returns arg, reads stdin for "-", or prompts without echo.
func readToken(arg string) (string, error) {
	switch strings.TrimSpace(arg) {
	case "-":
		return readTokenFrom(os.Stdin)
	case "":
		if err := RequiresTTY("read a token"); err != nil {
			return "", ErrMissingArgument("token", "sarthi login <token>  or  echo $TOKEN | sarthi login -")
		}
		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)
		token, err := line.PasswordPrompt("Token: ")
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(token), nil
	default:
		return strings.TrimSpace(arg), nil
	}
}

func readTokenFrom(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", ErrMissingArgument("token", "echo $TOKEN | sarthi login -")
	}
	return token, nil
}

// HandleLogout removes the stored token.
func HandleLogout(app *App, args Args) error {
	had := app.Tokens.Exists()
	if err := app.Tokens.Clear(); err != nil {
		return NewCommandError("logout", "clear", "could not remove the stored token", err)
	}
	app.Logger.Info("login cleared")

	if args.JSON {
		return NewJSONResponse("logout", map[string]bool{"removed": had}).Print()
	}
	if had {
		fmt.Printf("%s Signed out\n", SuccessStyle.Render("[OK]"))
	} else {
		fmt.Println("No stored login.")
	}
	if app.Config.Auth.Token != "" {
		StderrPrintln(WarningStyle.Render("Note:") + " SARTHI_TOKEN is still set in the environment.")
	}
	return nil
}

// HandleWhoami prints the identity of the current token. It reads the
// token's claims only and makes no request.
func HandleWhoami(app *App, args Args) error {
	token, source, err := app.Token()
	if err != nil {
		return err
	}
	id, err := session.FromToken(token)
	if err != nil {
		return fmt.Errorf("stored login is unusable: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("whoami", identityData(id, source)).Print()
	}

	fmt.Println(TitleStyle.Render(id.DisplayName()))
	fmt.Printf("%s%s\n", RenderLabel("User ID"), id.UserID)
	if id.Email != "" {
		fmt.Printf("%s%s\n", RenderLabel("Email"), id.Email)
	}
	if id.Role != "" {
		fmt.Printf("%s%s\n", RenderLabel("Role"), titleCase(id.Role))
	}
	if !id.ExpiresAt.IsZero() {
		fmt.Printf("%s%s\n", RenderLabel("Expires"), expiryText(id, time.Now()))
	}
	fmt.Printf("%s%s\n", RenderLabel("Token from"), sourceText(source))
	return nil
}

func identityData(id session.Identity, source string) IdentityData {
	data := IdentityData{
		UserID:  id.UserID,
		Name:    id.DisplayName(),
		Email:   id.Email,
		Role:    id.Role,
		Expired: id.Expired(time.Now()),
		Source:  source,
	}
	if !id.ExpiresAt.IsZero() {
		exp := id.ExpiresAt
		data.ExpiresAt = &exp
	}
	return data
}

func describeIdentity(id session.Identity) string {
	name := PeerStyle.Render(id.DisplayName())
	if id.Role != "" {
		return name + " (" + id.Role + ")"
	}
	return name
}

func expiryText(id session.Identity, now time.Time) string {
	stamp := id.ExpiresAt.Local().Format("2006-01-02 15:04")
	if id.Expired(now) {
		return ErrorStyle.Render(stamp + " (expired)")
	}
	return stamp + " (in " + formatDuration(id.ExpiresAt.Sub(now)) + ")"
}

func sourceText(source string) string {
	if source == TokenFromEnv {
		return "SARTHI_TOKEN"
	}
	return "stored login"
}
