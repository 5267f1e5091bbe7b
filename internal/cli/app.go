// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Per-run bootstrap shared by the TUI and the line-mode commands.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/api"
	"github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/logging"
	"github.com/hrsarthi/sarthi-tui/internal/realtime"
	"github.com/hrsarthi/sarthi-tui/internal/session"
	"github.com/hrsarthi/sarthi-tui/internal/storage"
	"github.com/hrsarthi/sarthi-tui/internal/tasks"
)

// drainTimeout bounds how long Close waits for background mark-as-read
// requests before stopping the runner.
const drainTimeout = 3 * time.Second

// Token sources reported by whoami and status.
const (
	TokenFromEnv   = "env"
	TokenFromStore = "store"
)

// App is everything a command needs for one run.
type App struct {
	Config *config.Config
	// ConfigPath is the file that was loaded, or where init would write.
	ConfigPath string
	// ConfigExists is false when the built-in defaults are in use.
	ConfigExists bool

	Logger   *zap.Logger
	Tokens   *storage.TokenStore
	Sessions *session.Manager
	// Runner carries background mark-as-read work for every identity.
	Runner *tasks.Runner
}

// Bootstrap loads the configuration, opens the log and prepares the token
// store. It does not sign in; commands call SignIn when they need a user.
func Bootstrap(args Args) (*App, error) {
	path, exists, err := resolveConfigPath(args.ConfigPath)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if exists {
		config.LoadDotEnv()
		cfg, err = config.LoadFromPath(path)
	} else {
		if args.ConfigPath != "" {
			return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
		}
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if args.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		File:        logPath,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return nil, err
	}

	opts := tasks.DefaultOptions()
	opts.MaxConcurrent = cfg.Chat.MarkReadConcurrency
	opts.RatePerSecond = cfg.Chat.MarkReadRPS
	opts.Timeout = cfg.Chat.TaskTimeout()

	logger.Debug("bootstrap",
		zap.String("config", path),
		zap.Bool("config_exists", exists),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("realtime", cfg.Realtime.Enabled))

	return &App{
		Config:       cfg,
		ConfigPath:   path,
		ConfigExists: exists,
		Logger:       logger,
		Tokens:       storage.NewTokenStore(tokenPath),
		Sessions:     session.NewManager(),
		Runner:       tasks.NewRunner(opts, logger.Named("tasks")),
	}, nil
}

// resolveConfigPath returns the explicit path, or the TOML file, or the
// YAML file, in that order. With nothing on disk it returns the TOML path.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit != "" {
		_, err := os.Stat(explicit)
		return explicit, err == nil, nil
	}
	tomlPath, err := config.PathTOML()
	if err != nil {
		return "", false, err
	}
	for _, pathFn := range []func() (string, error){config.PathTOML, config.PathYAML} {
		p, err := pathFn()
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true, nil
		}
	}
	return tomlPath, false, nil
}

// Close waits briefly for background work and flushes the log.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := a.Runner.Wait(ctx); err != nil {
		a.Logger.Warn("background tasks still running at exit", zap.Error(err))
	}
	a.Runner.Stop()
	_ = a.Logger.Sync()
}

// =============================================================================
// LOGIN
// =============================================================================

// Token returns the bearer token for this run and where it came from.
// SARTHI_TOKEN wins over the stored login.
func (a *App) Token() (token, source string, err error) {
	if t := session.NormalizeToken(a.Config.Auth.Token); t != "" {
		return t, TokenFromEnv, nil
	}
	token, err = a.Tokens.Load()
	if errors.Is(err, storage.ErrNoToken) {
		return "", "", ErrNotSignedIn
	}
	if err != nil {
		return "", "", err
	}
	if token = session.NormalizeToken(token); token == "" {
		return "", "", ErrNotSignedIn
	}
	return token, TokenFromStore, nil
}

// SignIn resolves the identity of the current token and makes it the
// session's identity. An expired token is refused.
func (a *App) SignIn() (session.Identity, error) {
	token, _, err := a.Token()
	if err != nil {
		return session.Identity{}, err
	}
	id, err := session.FromToken(token)
	if err != nil {
		return session.Identity{}, fmt.Errorf("stored login is unusable: %w", err)
	}
	if id.Expired(time.Now()) {
		return session.Identity{}, fmt.Errorf("login expired %s ago: %w",
			formatDuration(time.Since(id.ExpiresAt)), ErrNotSignedIn)
	}
	a.Sessions.Switch(id, token)
	a.Logger.Info("signed in", zap.String("user_id", id.UserID), zap.String("role", id.Role))
	return id, nil
}

// =============================================================================
// BACKEND
// =============================================================================

// NewClient builds a REST client for token.
func (a *App) NewClient(token string) *api.Client {
	return api.NewClient(a.Config.API.BaseURL, token).
		WithTimeout(a.Config.API.Timeout()).
		WithLogger(a.Logger)
}

// NewService builds the chat service for token on the shared runner.
func (a *App) NewService(token string) *chat.Service {
	return chat.NewService(a.NewClient(token), a.Runner, a.Logger).
		WithTimeout(a.Config.API.Timeout())
}

// NewChannel builds the real-time channel for token. It returns nil when
// real-time updates are disabled or no socket URL can be derived.
func (a *App) NewChannel(token string) *realtime.Channel {
	if !a.Config.Realtime.Enabled {
		return nil
	}
	url := a.Config.SocketURL()
	if url == "" {
		a.Logger.Warn("realtime disabled: no socket url")
		return nil
	}
	return realtime.NewChannel(url, token).
		WithLogger(a.Logger).
		WithPingInterval(a.Config.Realtime.PingInterval()).
		WithHandshakeTimeout(a.Config.Realtime.HandshakeTimeout())
}
