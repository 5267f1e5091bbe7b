// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SARTHI_HOME", dir)
	for _, key := range []string{"SARTHI_API_URL", "SARTHI_SOCKET_URL", "SARTHI_TOKEN", "SARTHI_LOG_LEVEL", "SARTHI_THEME", "SARTHI_REALTIME"} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.True(t, cfg.Realtime.Enabled)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 15*time.Second, cfg.API.Timeout())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[api]
base_url = "https://hr.example.com/api"

[ui]
theme = "light"
`)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://hr.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 15, cfg.API.TimeoutSecs, "omitted fields keep defaults")
	assert.True(t, cfg.Realtime.Enabled, "omitted booleans keep defaults")
}

func TestLoad_YAMLFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
api:
  base_url: http://yaml.example.com/api
realtime:
  enabled: false
`)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://yaml.example.com/api", cfg.API.BaseURL)
	assert.False(t, cfg.Realtime.Enabled)
}

func TestLoad_TOMLWinsOverYAML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[ui]\ntheme = \"light\"\n")
	writeFile(t, filepath.Join(dir, "config.yaml"), "ui:\n  theme: auto\n")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoad_BrokenFileIsError(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[api\nbase_url = ")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[ui]\ntheme = \"purple\"\n")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.theme")
}

func TestLoad_TightensPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"dark\"\n"), 0644))
	_, err := LoadFromPath(path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SARTHI_API_URL", "https://env.example.com/api")
	t.Setenv("SARTHI_SOCKET_URL", "wss://push.example.com")
	t.Setenv("SARTHI_TOKEN", "tok")
	t.Setenv("SARTHI_LOG_LEVEL", "DEBUG")
	t.Setenv("SARTHI_THEME", "Light")
	t.Setenv("SARTHI_REALTIME", "off")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "wss://push.example.com", cfg.SocketURL())
	assert.Equal(t, "tok", cfg.Auth.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.False(t, cfg.Realtime.Enabled)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "SARTHI_THEME=auto\n")
	// Unset so godotenv may fill it.
	require.NoError(t, os.Unsetenv("SARTHI_THEME"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSave_RoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.API.BaseURL = "https://saved.example.com/api"
	cfg.UI.SidebarWidth = 40
	cfg.Auth.Token = "never-written"
	require.NoError(t, Save(cfg))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# sarthi configuration file"))
	assert.NotContains(t, string(data), "never-written")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com/api", loaded.API.BaseURL)
	assert.Equal(t, 40, loaded.UI.SidebarWidth)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url"},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://x/api" }, "api.base_url"},
		{"zero timeout", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs"},
		{"bad socket url", func(c *Config) { c.Realtime.URL = "gopher://x" }, "realtime.url"},
		{"no concurrency", func(c *Config) { c.Chat.MarkReadConcurrency = 0 }, "chat.mark_read_concurrency"},
		{"negative rps", func(c *Config) { c.Chat.MarkReadRPS = -1 }, "chat.mark_read_rps"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"narrow sidebar", func(c *Config) { c.UI.SidebarWidth = 4 }, "ui.sidebar_width"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.API.TimeoutSecs = 0
	cfg.UI.Theme = "neon"
	err := cfg.Validate()
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "; ")
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestConfig_SocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:5000/api", "http://localhost:5000"},
		{"https://hr.example.com/api/", "https://hr.example.com"},
		{"https://hr.example.com/v2/api", "https://hr.example.com/v2"},
		{"https://hr.example.com", "https://hr.example.com"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.API.BaseURL = tt.base
		assert.Equal(t, tt.want, cfg.SocketURL(), tt.base)
	}
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("ui.theme", "light"))
	require.NoError(t, cfg.Set("api.timeout_secs", "30"))
	require.NoError(t, cfg.Set("realtime.enabled", "false"))
	require.NoError(t, cfg.Set("chat.mark_read_rps", "2.5"))

	v, err := cfg.Get("ui.theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
	assert.Equal(t, 30, cfg.API.TimeoutSecs)
	assert.False(t, cfg.Realtime.Enabled)
	assert.Equal(t, 2.5, cfg.Chat.MarkReadRPS)

	_, err = cfg.Get("auth.token")
	assert.Error(t, err, "the token is not addressable")
	assert.Error(t, cfg.Set("nope.x", "1"))
	assert.Error(t, cfg.Set("api", "1"))
	assert.Error(t, cfg.Set("api.timeout_secs", "abc"))
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "api.base_url")
	assert.Contains(t, keys, "log.development")
	assert.NotContains(t, keys, "auth.token")
	for _, k := range keys {
		_, err := Default().Get(k)
		assert.NoError(t, err, k)
	}
}

func TestConfig_StringRedactsToken(t *testing.T) {
	cfg := Default()
	cfg.Auth.Token = "super-secret"
	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.Contains(t, s, "[REDACTED]")
}

func TestConfig_Paths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	p, err := cfg.TokenPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "token"), p)

	p, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sarthi.log"), p)

	cfg.Log.File = "-"
	p, _ = cfg.LogPath()
	assert.Equal(t, "-", p)
}

// =============================================================================
// GLOBAL INSTANCE TESTS
// =============================================================================

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_ConcurrentReload(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	cfg := Default()
	cfg.UI.Theme = "light"
	SetGlobal(cfg)
	assert.Equal(t, "light", Global().UI.Theme)
}

// =============================================================================
// WATCH TESTS
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
			if err == nil {
				changes <- cfg
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "[ui]\ntheme = \"light\"\n")

	select {
	case cfg := <-changes:
		assert.Equal(t, "light", cfg.UI.Theme)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "config.toml"), 0, func(*Config, error) {})
	assert.Error(t, err)
}
