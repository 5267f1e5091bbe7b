// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// Error variables for common API failures.
var (
	// ErrNotConfigured indicates the base URL or token is missing.
	ErrNotConfigured = errors.New("api client not configured")

	// ErrUnauthorized indicates the bearer token was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the token is valid but lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidResponse indicates the payload did not match the expected shape.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrEmptyMessage indicates a send was attempted with blank content.
	ErrEmptyMessage = errors.New("message content is empty")
)

// APIError is a non-2xx response that does not map to a sentinel.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
}

// Temporary reports whether the server signalled a transient failure.
// The client never retries on its own; callers may use this for messaging.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// errorBody is the server's error document.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(status int, body []byte) error {
	msg := ""
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		msg = eb.Message
		if msg == "" {
			msg = eb.Error
		}
	} else {
		msg = strings.TrimSpace(string(body))
	}
	msg = util.TruncateRunes(msg, 200)

	var sentinel error
	switch status {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	default:
		return &APIError{Status: status, Message: msg}
	}
	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
