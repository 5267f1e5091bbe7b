// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sarthi.log")
	logger, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Named("api").Info("request done", zap.Int("status", 200))
	logger.Debug("hidden at info")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"request done"`)
	assert.Contains(t, string(data), `"logger":"api"`)
	assert.NotContains(t, string(data), "hidden at info")
}

func TestNew_DevelopmentConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.log")
	logger, err := New(Options{Level: "debug", File: path, Development: true})
	require.NoError(t, err)

	logger.Debug("visible at debug")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible at debug")
	assert.NotContains(t, string(data), `"msg"`)
}

func TestNew_FileIsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sarthi.log")
	_, err := New(Options{File: path})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Info("discarded") })
}
