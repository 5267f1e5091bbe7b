// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by all sarthi commands.
//
// Handlers always return errors and never print them. main displays the
// error once and exits with the code GetExitCode picks for it.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/hrsarthi/sarthi-tui/internal/api"
	"github.com/hrsarthi/sarthi-tui/internal/config"
	"github.com/hrsarthi/sarthi-tui/internal/realtime"
	"github.com/hrsarthi/sarthi-tui/internal/session"
	"github.com/hrsarthi/sarthi-tui/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing, expired or rejected login
	ExitAuthError = 4
	// ExitNetworkError indicates the API or socket could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a user or resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// ErrNotSignedIn is returned when no token is stored or set in the
// environment.
var ErrNotSignedIn = errors.New("not signed in: run sarthi login <token>")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a command failure with context.
type CommandError struct {
	Command string // e.g. "send", "config"
	Action  string // e.g. "post", "set"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError is invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError is a lookup that matched nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// AmbiguousError is a lookup that matched more than one candidate.
type AmbiguousError struct {
	Resource   string
	Query      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %d %ss: %s (use the id)",
		e.Query, len(e.Candidates), e.Resource, strings.Join(e.Candidates, ", "))
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with a usage
// example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to stderr, or as a JSON envelope to stdout in
// JSON mode.
func DisplayError(err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(os.Stderr, DimStyle.Render(hint))
	}
}

// DisplayErrorJSON outputs an error as JSON.
func DisplayErrorJSON(err error) {
	output := map[string]interface{}{
		"success":    false,
		"error":      err.Error(),
		"error_type": errorType(err),
		"exit_code":  GetExitCode(err),
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	var nfErr *NotFoundError
	var ambErr *AmbiguousError
	var apiErr *api.APIError
	switch {
	case errors.As(err, &valErr):
		output["field"] = valErr.Field
		output["reason"] = valErr.Reason
		if valErr.Example != "" {
			output["example"] = valErr.Example
		}
	case errors.As(err, &nfErr):
		output["resource"] = nfErr.Resource
		output["id"] = nfErr.ID
	case errors.As(err, &ambErr):
		output["candidates"] = ambErr.Candidates
	case errors.As(err, &apiErr):
		output["http_status"] = apiErr.Status
	case errors.As(err, &cmdErr):
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "validation_error"
	case ExitConfigError:
		return "config_error"
	case ExitAuthError:
		return "auth_error"
	case ExitNetworkError:
		return "network_error"
	case ExitNotFoundError:
		return "not_found_error"
	case ExitTimeoutError:
		return "timeout_error"
	default:
		return "generic_error"
	}
}

// errorHint suggests a next step for the common failures.
func errorHint(err error) string {
	switch {
	case errors.Is(err, ErrNotSignedIn):
		return ""
	case errors.Is(err, api.ErrUnauthorized):
		return "Your login was rejected. Sign in again with: sarthi login <token>"
	case errors.Is(err, api.ErrNotConfigured):
		return "Set api.base_url with: sarthi config set api.base_url <url>"
	case GetExitCode(err) == ExitNetworkError:
		return "Check that the server is running and api.base_url is correct (sarthi status)."
	}
	return ""
}

// =============================================================================
// EXIT
// =============================================================================

// HandleError displays err and returns it.
func HandleError(err error, jsonMode bool) error {
	if err == nil {
		return nil
	}
	DisplayError(err, jsonMode)
	return err
}

// HandleErrorAndExit displays err and exits with its exit code.
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}

// GetExitCode picks the exit code for err from its type and the sentinel
// errors of the api, session, storage, realtime and config packages.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var notFoundErr *NotFoundError
	var ambiguousErr *AmbiguousError
	var ttyErr *TTYRequiredError
	var configErrs config.ValidateErrors
	var netErr net.Error
	var apiErr *api.APIError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &ambiguousErr), errors.As(err, &ttyErr),
		errors.Is(err, api.ErrEmptyMessage):
		return ExitUsageError

	case errors.Is(err, ErrNotSignedIn), errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrForbidden),
		errors.Is(err, session.ErrNoToken), errors.Is(err, session.ErrNoUserClaim),
		errors.Is(err, storage.ErrNoToken), errors.Is(err, storage.ErrCorrupt):
		return ExitAuthError

	case errors.As(err, &notFoundErr), errors.Is(err, api.ErrNotFound):
		return ExitNotFoundError

	case errors.Is(err, api.ErrNotConfigured), errors.Is(err, realtime.ErrBadURL), errors.As(err, &configErrs):
		return ExitConfigError

	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError

	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ExitTimeoutError
		}
		return ExitNetworkError

	case errors.Is(err, realtime.ErrNotConnected):
		return ExitNetworkError

	case errors.As(err, &apiErr):
		if apiErr.Temporary() {
			return ExitNetworkError
		}
		return ExitGeneralError
	}

	if strings.Contains(strings.ToLower(err.Error()), "config") {
		return ExitConfigError
	}
	return ExitGeneralError
}

// WrapError adds context to err.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
