// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for sarthi.

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdUsers
	CmdConversations
	CmdSend
	CmdExport
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdConfig
	CmdStatus
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdUsers:
		return "users"
	case CmdConversations:
		return "conversations"
	case CmdSend:
		return "send"
	case CmdExport:
		return "export"
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdWhoami:
		return "whoami"
	case CmdConfig:
		return "config"
	case CmdStatus:
		return "status"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// NeedsApp reports whether the command needs the configuration, log and
// token store.
func (c Command) NeedsApp() bool {
	switch c {
	case CmdVersion, CmdHelp, CmdUnknown:
		return false
	}
	return true
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose    bool
	JSON       bool   // Output in JSON format
	ConfigPath string // --config PATH

	// Command-specific
	Subcommand string
	User       string // chat, send: id or name of the counterpart
	Text       string // send: message text
	Filter     string // users: name or department filter
	Token      string // login: bearer token, "-" reads stdin
	ConfigKey  string
	ConfigVal  string
	Force      bool
	Limit      int    // chat: history lines shown, 0 means all
	Format     string // export: markdown, json or html
	Output     string // export: output directory
	Open       bool   // export: open the file afterwards

	// Name is the command as typed, for error messages.
	Name string

	// Raw args (remaining after the command name)
	Raw []string
}

const usageText = `sarthi - HR SARTHI chat client for the terminal

Usage:
  sarthi                       Start the full-screen chat (default)
  sarthi tui                   Same as above
  sarthi chat <user>           Line-mode conversation with one user
  sarthi send <user> <text>    Send one message and exit
  sarthi export <user>         Save a conversation (--format md|json|html, -o DIR, --open)
  sarthi users [filter]        List the directory, optionally filtered
  sarthi conversations, ls     List conversations with unread counts
  sarthi login [token|-]       Store a login token (prompts when omitted)
  sarthi logout                Forget the stored token
  sarthi whoami                Show the signed-in user
  sarthi config [subcommand]   show | path | init | get <key> | set <key> <value> | keys
  sarthi status, s             Check the API and the real-time channel
  sarthi version               Show version information
  sarthi help                  Show this help

<user> is a user id or a case-insensitive name. A name must match exactly
one person; use the id when it does not.

Global flags:
  --json                       Machine-readable output
  -v, --verbose                Debug logging
  --config PATH                Use this config file

Chat commands (inside sarthi chat):
  /refresh                     Reload the conversation
  /history                     Print the whole conversation again
  /help                        Show chat commands
  /quit, /exit                 Leave

Environment:
  SARTHI_HOME                  Config directory (default ~/.sarthi)
  SARTHI_API_URL               Overrides api.base_url
  SARTHI_SOCKET_URL            Overrides realtime.url
  SARTHI_TOKEN                 Login token for this run only
  SARTHI_REALTIME              "false" turns off live updates
  SARTHI_THEME                 dark, light or auto
  SARTHI_LOG_LEVEL             debug, info, warn or error
  NO_COLOR                     Disable colored output

Examples:
  sarthi login eyJhbGciOi...
  sarthi users eng
  sarthi chat "alice smith"
  sarthi send 64f1c0de "Your leave request is approved"
  sarthi export alice --format html -o ~/Documents
  sarthi --json conversations

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("sarthi version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv without the program name.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Name = name
	parsedArgs.Raw = remaining

	switch name {
	case "tui":
		return CmdTUI, parsedArgs

	case "chat", "c":
		p := NewArgParser(remaining)
		parsedArgs.User = strings.Join(p.PositionalFrom(0), " ")
		parsedArgs.Limit = p.FlagIntOrDefault("limit", 0)
		return CmdChat, parsedArgs

	case "send":
		p := NewArgParser(remaining)
		parsedArgs.User = p.Positional(0)
		parsedArgs.Text = JoinPositionalArgs(p, 1)
		return CmdSend, parsedArgs

	case "export":
		p := NewArgParser(remaining, "open")
		parsedArgs.User = JoinPositionalArgs(p, 0)
		parsedArgs.Format = p.FlagOrDefault("format", "markdown")
		parsedArgs.Output = p.FlagOrDefault("output", p.FlagOrDefault("o", "."))
		parsedArgs.Open = p.BoolFlag("open")
		return CmdExport, parsedArgs

	case "users", "contacts":
		p := NewArgParser(remaining)
		parsedArgs.Filter = JoinPositionalArgs(p, 0)
		return CmdUsers, parsedArgs

	case "conversations", "convos", "ls":
		return CmdConversations, parsedArgs

	case "login":
		p := NewArgParser(remaining)
		parsedArgs.Token = p.Positional(0)
		return CmdLogin, parsedArgs

	case "logout":
		return CmdLogout, parsedArgs

	case "whoami":
		return CmdWhoami, parsedArgs

	case "config":
		p := NewArgParser(remaining, "force")
		parsedArgs.Subcommand = p.Subcommand()
		parsedArgs.ConfigKey = p.Positional(1)
		parsedArgs.ConfigVal = JoinPositionalArgs(p, 2)
		parsedArgs.Force = p.BoolFlag("force")
		return CmdConfig, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
// Everything after "--" is left alone.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			return append(remaining, args[i:]...), parsedArgs
		case arg == "-v" || arg == "--verbose":
			parsedArgs.Verbose = true
		case arg == "--json":
			parsedArgs.JSON = true
		case arg == "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsedArgs
}

// =============================================================================
// HANDLERS WITHOUT AN APP
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	PrintVersion()
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp() error {
	PrintUsage()
	return nil
}

// HandleUnknown reports an unrecognized command.
func HandleUnknown(args Args) error {
	return NewValidationErrorWithExample("command", args.Name, "unknown command", "sarthi help")
}
