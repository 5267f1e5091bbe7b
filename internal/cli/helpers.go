// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Helpers shared by the line-mode commands.

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/util"
)

// formatDuration formats a time.Duration for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// =============================================================================
// USER RESOLUTION
// =============================================================================

var folder = cases.Fold()

// ResolveUser finds the user a command argument names. An exact id wins;
// otherwise the query must match exactly one full name, ignoring case, or
// failing that be contained in exactly one name. selfID is never matched.
func ResolveUser(users []model.User, query, selfID string) (model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.User{}, ErrMissingArgument("user", "sarthi chat <user>")
	}

	candidates := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		if u.ID == query {
			return u, nil
		}
		candidates = append(candidates, u)
	}

	q := folder.String(query)
	var exact, partial []model.User
	for _, u := range candidates {
		name := folder.String(u.DisplayName())
		switch {
		case name == q:
			exact = append(exact, u)
		case strings.Contains(name, q):
			partial = append(partial, u)
		}
	}

	for _, set := range [][]model.User{exact, partial} {
		switch len(set) {
		case 0:
			continue
		case 1:
			return set[0], nil
		default:
			names := make([]string, len(set))
			for i, u := range set {
				names[i] = fmt.Sprintf("%s (%s)", u.DisplayName(), u.ID)
			}
			sort.Strings(names)
			return model.User{}, &AmbiguousError{Resource: "user", Query: query, Candidates: names}
		}
	}
	return model.User{}, NewNotFoundError("user", query)
}

// =============================================================================
// TABLES
// =============================================================================

// table prints aligned columns. The last column is never padded.
type table struct {
	headers []string
	rows    [][]string
	// max caps column widths; zero means uncapped.
	max []int
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) widths() []int {
	w := make([]int, len(t.headers))
	for i, h := range t.headers {
		w[i] = util.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(w) {
				w[i] = maxInt(w[i], util.StringWidth(cell))
			}
		}
	}
	for i := range w {
		if i < len(t.max) && t.max[i] > 0 && w[i] > t.max[i] {
			w[i] = t.max[i]
		}
	}
	return w
}

func (t *table) render(out io.Writer) {
	w := t.widths()
	line := func(cells []string, style func(string) string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			cell = util.TruncateWidth(cell, w[i])
			if i < len(cells)-1 {
				cell = util.PadRight(cell, w[i])
			}
			parts[i] = cell
		}
		fmt.Fprintln(out, style(strings.TrimRight(strings.Join(parts, "  "), " ")))
	}
	line(t.headers, func(s string) string { return DimStyle.Render(s) })
	for _, row := range t.rows {
		line(row, func(s string) string { return s })
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// orDash returns s, or "-" when it is empty.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// titleCase upper-cases the first letter of each word, e.g. for roles.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
