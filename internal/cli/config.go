// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for sarthi.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init [--force]      Write the defaults to the configuration file
//   get <key>           Print one value
//   set <key> <value>   Change one value in the file
//   keys                List every key
//
// Examples:
//   sarthi config set api.base_url https://hr.example.com/api
//   sarthi config set realtime.enabled false
//   sarthi config set ui.theme light
//   sarthi config get log.level

package cli

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// HandleConfig handles the "config" command.
func HandleConfig(app *App, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(app, args)
	case "path":
		return handleConfigPath(app, args)
	case "init":
		return handleConfigInit(app, args)
	case "get":
		return handleConfigGet(app, args)
	case "set":
		return handleConfigSet(app, args)
	case "keys":
		return handleConfigKeys(args)
	default:
		return NewValidationErrorWithExample("config subcommand", args.Subcommand, "unknown subcommand",
			"sarthi config [show|path|init|get|set|keys]")
	}
}

// handleConfigShow prints the effective configuration, environment
// overrides included.
func handleConfigShow(app *App, args Args) error {
	cfg := app.Config
	if args.JSON {
		values := make(map[string]interface{})
		for _, key := range config.Keys() {
			v, _ := cfg.Get(key)
			values[key] = v
		}
		return NewJSONResponse("config", map[string]interface{}{
			"path":       app.ConfigPath,
			"exists":     app.ConfigExists,
			"values":     values,
			"token":      maskToken(cfg.Auth.Token),
			"socket_url": cfg.SocketURL(),
		}).Print()
	}

	fmt.Println(TitleStyle.Render("sarthi configuration"))
	section := ""
	for _, key := range config.Keys() {
		sec, name, _ := strings.Cut(key, ".")
		if sec != section {
			section = sec
			fmt.Println(SectionStyle.Render("[" + sec + "]"))
		}
		v, _ := cfg.Get(key)
		fmt.Printf("  %s%s\n", LabelStyle.Width(24).Render(name), ValueStyle.Render(formatValue(v)))
	}
	if cfg.Auth.Token != "" {
		fmt.Printf("  %s%s\n", LabelStyle.Width(24).Render("SARTHI_TOKEN"), DimStyle.Render(maskToken(cfg.Auth.Token)))
	}

	fmt.Println()
	fmt.Println(RenderSeparator(41))
	note := ""
	if !app.ConfigExists {
		note = DimStyle.Render("  (not created, defaults in use)")
	}
	fmt.Printf("Config file: %s%s\n", DimStyle.Render(app.ConfigPath), note)
	return nil
}

func handleConfigPath(app *App, args Args) error {
	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   app.ConfigPath,
			"exists": app.ConfigExists,
		}).Print()
	}
	fmt.Println(app.ConfigPath)
	if !app.ConfigExists {
		StderrPrintln(DimStyle.Render("Note") + " (file does not exist; create it with: sarthi config init)")
	}
	return nil
}

// handleConfigInit writes the defaults. An existing file is only replaced
// after confirmation.
func handleConfigInit(app *App, args Args) error {
	if app.ConfigExists {
		ok, err := RequireConfirmation("Overwrite "+app.ConfigPath, ConfirmationOptions{Force: args.Force, JSONMode: args.JSON})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}
	if err := writeConfig(config.Default(), app.ConfigPath); err != nil {
		return NewCommandError("config", "init", "could not write the config file", err)
	}
	app.Logger.Info("config initialized", zap.String("path", app.ConfigPath))

	if args.JSON {
		return NewJSONResponse("config init", map[string]string{"path": app.ConfigPath}).Print()
	}
	fmt.Printf("%s Wrote %s\n", SuccessStyle.Render("[OK]"), app.ConfigPath)
	return nil
}

func handleConfigGet(app *App, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "sarthi config get ui.theme")
	}
	v, err := app.Config.Get(args.ConfigKey)
	if err != nil {
		return NewValidationErrorWithExample("key", args.ConfigKey, err.Error(), "sarthi config keys")
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{"key": args.ConfigKey, "value": v}).Print()
	}
	fmt.Println(formatValue(v))
	return nil
}

// handleConfigSet changes one key in the file. The file is decoded without
// environment overrides so that they are never persisted.
func handleConfigSet(app *App, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "sarthi config set <key> <value>")
	}
	if args.ConfigVal == "" {
		return ErrMissingArgument("value", "sarthi config set "+args.ConfigKey+" <value>")
	}

	cfg := config.Default()
	if app.ConfigExists {
		var err error
		if isYAML(app.ConfigPath) {
			err = config.LoadYAML(cfg, app.ConfigPath)
		} else {
			err = config.LoadTOML(cfg, app.ConfigPath)
		}
		if err != nil {
			return err
		}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return NewValidationErrorWithExample("key", args.ConfigKey, err.Error(), "sarthi config keys")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := writeConfig(cfg, app.ConfigPath); err != nil {
		return NewCommandError("config", "set", "could not write the config file", err)
	}
	app.Logger.Info("config changed", zap.String("key", args.ConfigKey))

	v, _ := cfg.Get(args.ConfigKey)
	if args.JSON {
		return NewJSONResponse("config set", map[string]interface{}{"key": args.ConfigKey, "value": v}).Print()
	}
	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey, formatValue(v))
	return nil
}

func handleConfigKeys(args Args) error {
	keys := config.Keys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Print()
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// writeConfig writes cfg in the format the path's extension names.
func writeConfig(cfg *config.Config, path string) error {
	if !isYAML(path) {
		return config.SaveTOML(cfg, path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append([]byte("# sarthi configuration file\n"), data...)
	return util.AtomicWriteFile(path, data, 0600)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return "(not set)"
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}

// maskToken shows a short fingerprint instead of the token.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("sha256:%x...", hash[:4])
}

// configDirExists reports whether the sarthi directory has been created.
func configDirExists() bool {
	dir, err := config.Dir()
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
