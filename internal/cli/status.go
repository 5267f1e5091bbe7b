// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for sarthi.
//
// Command: status
// Aliases: s
//
// Sections:
//   Config:    File in use, API and socket URLs
//   Login:     Signed-in user and token source
//   Server:    One GET /conversations round trip, one socket handshake
//
// Exits non-zero when the API check fails. The real-time check only warns,
// since the client works over REST alone.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/hrsarthi/sarthi-tui/internal/session"
)

// HandleStatus handles the "status" command.
func HandleStatus(app *App, args Args) error {
	data, err := collectStatus(app)

	if args.JSON {
		if jerr := NewJSONResponse("status", data).Print(); jerr != nil {
			return jerr
		}
		return err
	}

	fmt.Println(TitleStyle.Render("sarthi status"))

	fmt.Println(SectionStyle.Render("Config"))
	file := app.ConfigPath
	if !app.ConfigExists {
		file += DimStyle.Render(" (defaults)")
	}
	fmt.Printf("  %s%s\n", RenderLabel("File"), file)
	if !configDirExists() {
		fmt.Printf("  %s%s\n", RenderLabel("Directory"), DimStyle.Render("not created yet"))
	}
	fmt.Printf("  %s%s\n", RenderLabel("API"), data.APIURL)
	fmt.Printf("  %s%s\n", RenderLabel("Socket"), orDash(data.SocketURL))

	fmt.Println(SectionStyle.Render("Login"))
	if data.Identity != nil {
		fmt.Printf("  %s%s\n", RenderLabel("User"), data.Identity.Name)
		if data.Identity.Role != "" {
			fmt.Printf("  %s%s\n", RenderLabel("Role"), titleCase(data.Identity.Role))
		}
		fmt.Printf("  %s%s\n", RenderLabel("Token from"), sourceText(data.Identity.Source))
	} else {
		fmt.Printf("  %s%s\n", RenderLabel("User"), WarningStyle.Render("not signed in"))
	}

	fmt.Println(SectionStyle.Render("Server"))
	printCheck("API", data.API)
	printCheck("Real-time", data.Realtime)
	if data.API.Status == "ok" {
		fmt.Printf("  %s%d\n", RenderLabel("Unread"), data.Unread)
	}
	return err
}

func printCheck(label string, c CheckData) {
	line := RenderStatus(c.Status)
	if c.LatencyMs > 0 {
		line += DimStyle.Render(fmt.Sprintf(" %dms", c.LatencyMs))
	}
	if c.Message != "" {
		line += " " + c.Message
	}
	fmt.Printf("  %s%s\n", RenderLabel(label), line)
}

// collectStatus runs the checks. The returned error is the API failure,
// if any.
func collectStatus(app *App) (StatusData, error) {
	cfg := app.Config
	data := StatusData{
		ConfigPath: app.ConfigPath,
		APIURL:     cfg.API.BaseURL,
		SocketURL:  cfg.SocketURL(),
		API:        CheckData{Status: "skipped"},
		Realtime:   CheckData{Status: "skipped"},
	}
	if !cfg.Realtime.Enabled {
		data.Realtime = CheckData{Status: "off", Message: "disabled in config"}
	}

	id, err := app.SignIn()
	if err != nil {
		data.API.Message = err.Error()
		return data, err
	}
	_, source, _ := app.Token()
	ident := identityData(id, source)
	data.SignedIn = true
	data.Identity = &ident
	token := app.Sessions.Token()

	data.API, data.Unread, err = checkAPI(app, token)

	if cfg.Realtime.Enabled {
		data.Realtime = checkRealtime(app, id, token)
	}
	return data, err
}

func checkAPI(app *App, token string) (CheckData, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), app.Config.API.Timeout())
	defer cancel()

	start := time.Now()
	convs, err := app.NewClient(token).ListConversations(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckData{Status: "fail", Message: err.Error(), LatencyMs: latency}, 0, err
	}
	unread := 0
	for _, c := range convs {
		unread += c.UnreadCount
	}
	return CheckData{Status: "ok", LatencyMs: latency}, unread, nil
}

// checkRealtime opens and closes one socket session.
func checkRealtime(app *App, id session.Identity, token string) CheckData {
	ch := app.NewChannel(token)
	if ch == nil {
		return CheckData{Status: "off", Message: "no socket url"}
	}
	timeout := app.Config.Realtime.HandshakeTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := ch.Connect(ctx, id.UserID)
	latency := time.Since(start).Milliseconds()
	ch.Disconnect()
	if err != nil {
		return CheckData{Status: "warn", Message: err.Error(), LatencyMs: latency}
	}
	return CheckData{Status: "ok", LatencyMs: latency}
}
