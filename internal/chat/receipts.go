// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sort"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// ReceiptSet is the client-local set of message ids known to be read. It
// only grows; a new session starts with a new set.
type ReceiptSet struct {
	ids map[string]struct{}
}

// NewReceiptSet creates an empty set.
func NewReceiptSet() *ReceiptSet {
	return &ReceiptSet{ids: make(map[string]struct{})}
}

// Add records id as read and reports whether it was new.
func (r *ReceiptSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := r.ids[id]; ok {
		return false
	}
	r.ids[id] = struct{}{}
	return true
}

// Has reports whether id is known to be read.
func (r *ReceiptSet) Has(id string) bool {
	_, ok := r.ids[id]
	return ok
}

// Seed adds every message whose server read flag is set and returns how
// many ids were new.
func (r *ReceiptSet) Seed(msgs []model.Message) int {
	added := 0
	for _, m := range msgs {
		if m.Read && r.Add(m.ID) {
			added++
		}
	}
	return added
}

// Len returns the number of ids held.
func (r *ReceiptSet) Len() int {
	return len(r.ids)
}

// IDs returns the ids in sorted order.
func (r *ReceiptSet) IDs() []string {
	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
