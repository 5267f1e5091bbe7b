// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete sarthi configuration.
type Config struct {
	API      APIConfig      `toml:"api" yaml:"api" json:"api"`
	Realtime RealtimeConfig `toml:"realtime" yaml:"realtime" json:"realtime"`
	Auth     AuthConfig     `toml:"auth" yaml:"auth" json:"auth"`
	Chat     ChatConfig     `toml:"chat" yaml:"chat" json:"chat"`
	UI       UIConfig       `toml:"ui" yaml:"ui" json:"ui"`
	Log      LogConfig      `toml:"log" yaml:"log" json:"log"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	// BaseURL is the API root, e.g. http://localhost:5000/api.
	BaseURL string `toml:"base_url" yaml:"base_url" json:"base_url"`

	// TimeoutSecs bounds each request.
	TimeoutSecs int `toml:"timeout_secs" yaml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// RealtimeConfig configures the push channel.
type RealtimeConfig struct {
	// URL is the socket endpoint. Empty derives it from the API base URL.
	URL string `toml:"url" yaml:"url" json:"url"`

	// Enabled turns the push channel on. When off the client still works
	// over REST but only refreshes on demand.
	Enabled bool `toml:"enabled" yaml:"enabled" json:"enabled"`

	PingIntervalSecs     int `toml:"ping_interval_secs" yaml:"ping_interval_secs" json:"ping_interval_secs"`
	HandshakeTimeoutSecs int `toml:"handshake_timeout_secs" yaml:"handshake_timeout_secs" json:"handshake_timeout_secs"`
}

// PingInterval returns PingIntervalSecs as a duration.
func (r RealtimeConfig) PingInterval() time.Duration {
	return time.Duration(r.PingIntervalSecs) * time.Second
}

// HandshakeTimeout returns HandshakeTimeoutSecs as a duration.
func (r RealtimeConfig) HandshakeTimeout() time.Duration {
	return time.Duration(r.HandshakeTimeoutSecs) * time.Second
}

// SocketURL returns the configured socket URL, or the API origin when none
// is set. The API's /api suffix is dropped since the socket is served at
// the root.
func (c *Config) SocketURL() string {
	if c.Realtime.URL != "" {
		return c.Realtime.URL
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/api")
	u.RawQuery = ""
	return u.String()
}

// AuthConfig locates the stored credentials.
type AuthConfig struct {
	// TokenFile is where `sarthi login` stores the sealed token. Empty
	// means the default under the config directory.
	TokenFile string `toml:"token_file" yaml:"token_file" json:"token_file"`

	// Token is only ever set from SARTHI_TOKEN and never written to disk.
	Token string `toml:"-" yaml:"-" json:"-"`
}

// ChatConfig tunes background chat work.
type ChatConfig struct {
	MarkReadConcurrency int     `toml:"mark_read_concurrency" yaml:"mark_read_concurrency" json:"mark_read_concurrency"`
	MarkReadRPS         float64 `toml:"mark_read_rps" yaml:"mark_read_rps" json:"mark_read_rps"`
	TaskTimeoutSecs     int     `toml:"task_timeout_secs" yaml:"task_timeout_secs" json:"task_timeout_secs"`
}

// TaskTimeout returns TaskTimeoutSecs as a duration.
func (c ChatConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSecs) * time.Second
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme          string `toml:"theme" yaml:"theme" json:"theme"`
	RenderMarkdown bool   `toml:"render_markdown" yaml:"render_markdown" json:"render_markdown"`
	ShowTimestamps bool   `toml:"show_timestamps" yaml:"show_timestamps" json:"show_timestamps"`
	SidebarWidth   int    `toml:"sidebar_width" yaml:"sidebar_width" json:"sidebar_width"`
}

// LogConfig configures the log file.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level" json:"level"`

	// File is the log path. Empty means the default under the config
	// directory; "-" means stderr.
	File string `toml:"file" yaml:"file" json:"file"`

	// Development switches to the human-readable console encoder.
	Development bool `toml:"development" yaml:"development" json:"development"`
}

// Valid values for enumerated fields.
var (
	validThemes    = []string{"dark", "light", "auto"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://localhost:5000/api",
			TimeoutSecs: 15,
		},
		Realtime: RealtimeConfig{
			Enabled:              true,
			PingIntervalSecs:     25,
			HandshakeTimeoutSecs: 10,
		},
		Chat: ChatConfig{
			MarkReadConcurrency: 4,
			MarkReadRPS:         10,
			TaskTimeoutSecs:     10,
		},
		UI: UIConfig{
			Theme:          "dark",
			RenderMarkdown: true,
			ShowTimestamps: true,
			SidebarWidth:   32,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// fillDefaults fills zero-valued fields a partial file left out.
func fillDefaults(cfg *Config) {
	d := Default()
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = d.API.BaseURL
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = d.API.TimeoutSecs
	}
	if cfg.Realtime.PingIntervalSecs == 0 {
		cfg.Realtime.PingIntervalSecs = d.Realtime.PingIntervalSecs
	}
	if cfg.Realtime.HandshakeTimeoutSecs == 0 {
		cfg.Realtime.HandshakeTimeoutSecs = d.Realtime.HandshakeTimeoutSecs
	}
	if cfg.Chat.MarkReadConcurrency == 0 {
		cfg.Chat.MarkReadConcurrency = d.Chat.MarkReadConcurrency
	}
	if cfg.Chat.TaskTimeoutSecs == 0 {
		cfg.Chat.TaskTimeoutSecs = d.Chat.TaskTimeoutSecs
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = d.UI.Theme
	}
	if cfg.UI.SidebarWidth == 0 {
		cfg.UI.SidebarWidth = d.UI.SidebarWidth
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the sarthi directory: $SARTHI_HOME or ~/.sarthi.
func Dir() (string, error) {
	if home := os.Getenv("SARTHI_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sarthi"), nil
}

func inDir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// PathTOML returns the TOML config path.
func PathTOML() (string, error) { return inDir("config.toml") }

// PathYAML returns the YAML config path.
func PathYAML() (string, error) { return inDir("config.yaml") }

// TokenPath returns where the sealed token lives.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenFile != "" {
		return expandHome(c.Auth.TokenFile), nil
	}
	return inDir("token")
}

// LogPath returns the log file path, or "-" for stderr.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		if c.Log.File == "-" {
			return "-", nil
		}
		return expandHome(c.Log.File), nil
	}
	return inDir("sarthi.log")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// ensureSecurePermissions tightens a config file to owner-only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the TOML file, falling back to YAML and then to defaults.
// The .env file and environment overrides are applied last. A file that
// exists but fails to parse is an error.
func Load() (*Config, error) {
	LoadDotEnv()

	for _, pathFn := range []func() (string, error){PathTOML, PathYAML} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads a specific file, picking the decoder by extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg and fills defaults.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if err := decodeTOML(cfg, path); err != nil {
		return err
	}
	fillDefaults(cfg)
	return nil
}

// decodeTOML starts from defaults so that booleans omitted from the file
// keep their default rather than becoming false.
func decodeTOML(cfg *Config, path string) error {
	*cfg = *Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file into cfg and fills defaults.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	*cfg = *Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadDotEnv loads .env from the working directory and then from the sarthi
// directory. Variables already set in the environment win; missing files
// are ignored.
func LoadDotEnv() {
	candidates := []string{".env"}
	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes cfg to the default TOML path.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# sarthi configuration file")
	fmt.Fprintln(&buf, "# Generated by sarthi - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid field.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns ValidateErrors listing all
// problems, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := validateHTTPURL(c.API.BaseURL, "http", "https"); err != nil {
		add("api.base_url", "%v", err)
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 300 {
		add("api.timeout_secs", "must be between 1 and 300, got %d", c.API.TimeoutSecs)
	}

	if c.Realtime.URL != "" {
		if err := validateHTTPURL(c.Realtime.URL, "http", "https", "ws", "wss"); err != nil {
			add("realtime.url", "%v", err)
		}
	}
	if c.Realtime.PingIntervalSecs < 1 {
		add("realtime.ping_interval_secs", "must be positive, got %d", c.Realtime.PingIntervalSecs)
	}
	if c.Realtime.HandshakeTimeoutSecs < 1 {
		add("realtime.handshake_timeout_secs", "must be positive, got %d", c.Realtime.HandshakeTimeoutSecs)
	}

	if c.Chat.MarkReadConcurrency < 1 || c.Chat.MarkReadConcurrency > 32 {
		add("chat.mark_read_concurrency", "must be between 1 and 32, got %d", c.Chat.MarkReadConcurrency)
	}
	if c.Chat.MarkReadRPS < 0 {
		add("chat.mark_read_rps", "must not be negative, got %g", c.Chat.MarkReadRPS)
	}
	if c.Chat.TaskTimeoutSecs < 1 {
		add("chat.task_timeout_secs", "must be positive, got %d", c.Chat.TaskTimeoutSecs)
	}

	if !contains(validThemes, c.UI.Theme) {
		add("ui.theme", "must be one of %s, got %q", strings.Join(validThemes, ", "), c.UI.Theme)
	}
	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 80 {
		add("ui.sidebar_width", "must be between 16 and 80, got %d", c.UI.SidebarWidth)
	}

	if !contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		add("log.level", "must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string, schemes ...string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if !contains(schemes, u.Scheme) {
		return fmt.Errorf("scheme must be one of %s, got %q", strings.Join(schemes, ", "), u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables:
//   - SARTHI_API_URL: overrides api.base_url
//   - SARTHI_SOCKET_URL: overrides realtime.url
//   - SARTHI_TOKEN: supplies the session token for this run only
//   - SARTHI_LOG_LEVEL: overrides log.level
//   - SARTHI_THEME: overrides ui.theme
//   - SARTHI_REALTIME: "0" or "false" disables the push channel
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SARTHI_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SARTHI_SOCKET_URL"); v != "" {
		c.Realtime.URL = v
	}
	if v := os.Getenv("SARTHI_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("SARTHI_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SARTHI_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("SARTHI_REALTIME"); v != "" {
		c.Realtime.Enabled = parseBool(v)
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// =============================================================================
// GET/SET (DOT NOTATION)
// =============================================================================

// Get returns a value by its file key, e.g. "ui.theme".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by its file key. String input is converted to the
// field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a two-level key using the toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return reflect.Value{}, fmt.Errorf("invalid key %q: want section.name", key)
	}
	section, ok := fieldByTag(reflect.ValueOf(c).Elem(), parts[0])
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown section: %s", parts[0])
	}
	field, ok := fieldByTag(section, parts[1])
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown field: %s", key)
	}
	return field, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if tag != "" && tag != "-" && tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %w", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(s))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in file order.
func Keys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		prefix := section.Tag.Get("toml")
		for j := 0; j < section.Type.NumField(); j++ {
			tag := section.Type.Field(j).Tag.Get("toml")
			if tag == "" || tag == "-" {
				continue
			}
			keys = append(keys, prefix+"."+tag)
		}
	}
	return keys
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a copy of c. Config holds only value fields.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders c as indented JSON with the token redacted.
func (c *Config) String() string {
	safe := c.Clone()
	type view struct {
		*Config
		Token string `json:"token,omitempty"`
	}
	v := view{Config: safe}
	if safe.Auth.Token != "" {
		v.Token = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process configuration, loading it on first use. A load
// failure falls back to defaults with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the process configuration from disk. On error the
// current configuration is kept.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the process configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process configuration so the next
// Global call loads again.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
