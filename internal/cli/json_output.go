// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for --json.
//
// Every command prints one envelope on stdout. Human-readable notes go to
// stderr in JSON mode.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// JSONResponse is the envelope printed by every command in JSON mode.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC 3339 time the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// OutputJSON runs handler and, in JSON mode, prints its result in an
// envelope. Outside JSON mode the handler prints for itself and its data is
// ignored.
func OutputJSON(jsonMode bool, command string, handler func() (interface{}, error)) error {
	if !jsonMode {
		_, err := handler()
		return err
	}

	data, err := handler()
	if err != nil {
		// main prints the error envelope
		return err
	}
	return NewJSONResponse(command, data).Print()
}

// StderrPrintln prints a line to stderr.
func StderrPrintln(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// UserData is one directory entry.
type UserData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Active     bool   `json:"active"`
}

func newUserData(u model.User) UserData {
	return UserData{
		ID:         u.ID,
		Name:       u.DisplayName(),
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Active:     u.Active,
	}
}

// ConversationData is one inbox row.
type ConversationData struct {
	User          UserData  `json:"user"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

// MessageData is one message as printed by chat and send.
type MessageData struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}

func newMessageData(m model.Message) MessageData {
	return MessageData{
		ID:         m.ID,
		SenderID:   m.Sender.ID,
		SenderName: m.Sender.DisplayName(),
		ReceiverID: m.Receiver.ID,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		Read:       m.Read,
	}
}

// IdentityData is the signed-in user.
type IdentityData struct {
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	Source    string     `json:"source"`
}

// StatusData is the output of the status command.
type StatusData struct {
	ConfigPath string        `json:"config_path"`
	APIURL     string        `json:"api_url"`
	SocketURL  string        `json:"socket_url"`
	SignedIn   bool          `json:"signed_in"`
	Identity   *IdentityData `json:"identity,omitempty"`
	API        CheckData     `json:"api"`
	Realtime   CheckData     `json:"realtime"`
	Unread     int           `json:"unread"`
}

// CheckData is the outcome of one connectivity check.
type CheckData struct {
	Status    string `json:"status"` // "ok", "fail", "off" or "skipped"
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
