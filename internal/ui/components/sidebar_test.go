// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/hrsarthi/sarthi-tui/internal/chat"
	"github.com/hrsarthi/sarthi-tui/internal/model"
	"github.com/hrsarthi/sarthi-tui/internal/ui/styles"
)

func testEntries(n int) []chat.Entry {
	names := []string{"Alice", "Bob", "Carol", "Dinesh", "Esha", "Farah", "Gopal", "Hana"}
	entries := make([]chat.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, chat.Entry{
			User: model.User{
				ID:         "u" + names[i%len(names)],
				FirstName:  names[i%len(names)],
				Department: "Engineering",
			},
		})
	}
	return entries
}

// =============================================================================
// CURSOR TESTS
// =============================================================================

func TestConversationList_Navigation(t *testing.T) {
	l := NewConversationList(styles.NewTheme("dark"))
	l.SetSize(30, 6) // three entries per page
	l.SetEntries(testEntries(8))

	if got := l.SelectedID(); got != "uAlice" {
		t.Fatalf("initial selection = %q, want uAlice", got)
	}

	l.MoveUp(1)
	if got := l.SelectedID(); got != "uAlice" {
		t.Errorf("MoveUp at top moved to %q", got)
	}

	l.MoveDown(4)
	if got := l.SelectedID(); got != "uEsha" {
		t.Errorf("MoveDown(4) = %q, want uEsha", got)
	}
	if l.offset != 2 {
		t.Errorf("offset = %d, want 2 to keep the cursor visible", l.offset)
	}

	l.Bottom()
	if got := l.SelectedID(); got != "uHana" {
		t.Errorf("Bottom() = %q, want uHana", got)
	}
	l.MoveDown(3)
	if got := l.SelectedID(); got != "uHana" {
		t.Errorf("MoveDown past the end moved to %q", got)
	}

	l.Top()
	if l.SelectedID() != "uAlice" || l.offset != 0 {
		t.Errorf("Top() = %q offset %d", l.SelectedID(), l.offset)
	}
}

func TestConversationList_SetEntriesKeepsSelection(t *testing.T) {
	l := NewConversationList(styles.NewTheme("dark"))
	l.SetEntries(testEntries(4))
	l.MoveDown(2) // Carol

	// Carol moves to the front after a refresh.
	entries := testEntries(4)
	entries[0], entries[2] = entries[2], entries[0]
	l.SetEntries(entries)
	if got := l.SelectedID(); got != "uCarol" {
		t.Errorf("selection after refresh = %q, want uCarol", got)
	}

	l.SetEntries(testEntries(1))
	if got := l.SelectedID(); got != "uAlice" {
		t.Errorf("selection after shrink = %q, want uAlice", got)
	}

	l.SetEntries(nil)
	if _, ok := l.Selected(); ok {
		t.Error("Selected() on an empty list reported an entry")
	}
	if l.View() != "" {
		t.Error("View() of an empty list should be empty")
	}
}

// =============================================================================
// RENDER TESTS
// =============================================================================

func TestConversationList_ViewItem(t *testing.T) {
	now := time.Date(2025, 3, 4, 18, 0, 0, 0, time.Local)
	l := NewConversationList(styles.NewTheme("dark"))
	l.Now = now
	l.SetSize(34, 10)
	l.SetActive("u2")
	l.SetEntries([]chat.Entry{
		{
			User:            model.User{ID: "u2", FirstName: "Alice", LastName: "Smith", Department: "Engineering"},
			LastMessage:     "see you\nat ten",
			LastMessageAt:   time.Date(2025, 3, 4, 9, 5, 0, 0, time.Local),
			UnreadCount:     3,
			HasConversation: true,
		},
		{
			User: model.User{ID: "u3", FirstName: "Bob", Department: "Sales"},
		},
	})

	view := l.View()
	for _, want := range []string{"> Alice Smith", "09:05", "see you at ten", "3", "Bob", "Sales"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 4 {
		t.Errorf("View() lines = %d, want 4", lines)
	}
}

func TestConversationList_LongNameTruncated(t *testing.T) {
	l := NewConversationList(styles.NewTheme("dark"))
	l.SetSize(20, 4)
	l.SetEntries([]chat.Entry{{
		User: model.User{ID: "u9", FirstName: "Bartholomew", LastName: "Featherstonehaugh"},
	}})

	first := strings.Split(l.View(), "\n")[0]
	if !strings.Contains(first, "...") {
		t.Errorf("long name not truncated: %q", first)
	}
}
