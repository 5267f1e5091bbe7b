// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for commands that overwrite local state.
//
//  1. --force skips the prompt.
//  2. --json or a non-TTY stdin requires --force.
//  3. Otherwise the user is asked.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// Force skips the prompt.
	Force bool
	// JSONMode forbids prompting.
	JSONMode bool
}

// RequireConfirmation asks before a destructive action. It returns an error
// when confirmation is needed but cannot be asked for.
func RequireConfirmation(action string, opts ConfirmationOptions) (bool, error) {
	if opts.Force {
		return true, nil
	}
	if opts.JSONMode || !IsTTY() {
		return false, NewValidationErrorWithExample("confirmation", "",
			action+" requires --force when not interactive", "--force")
	}
	return PromptYesNo(action + "?"), nil
}

// PromptYesNo asks a yes/no question on stdin. Anything but y or yes is no.
func PromptYesNo(question string) bool {
	if !IsTTY() {
		return false
	}
	return promptYesNo(os.Stdin, os.Stdout, question)
}

func promptYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes"
}
