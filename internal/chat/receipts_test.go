// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

func TestReceiptSet_Monotonic(t *testing.T) {
	r := NewReceiptSet()
	assert.True(t, r.Add("m1"))
	assert.False(t, r.Add("m1"))
	assert.False(t, r.Add(""))
	assert.True(t, r.Add("m2"))

	// Seeding from history where m1 is not marked read cannot remove it.
	r.Seed([]model.Message{{ID: "m1", Read: false}, {ID: "m3", Read: true}})

	assert.True(t, r.Has("m1"))
	assert.Equal(t, []string{"m1", "m2", "m3"}, r.IDs())
	assert.Equal(t, 3, r.Len())
}

func TestReceiptSet_SeedCountsNew(t *testing.T) {
	r := NewReceiptSet()
	r.Add("m1")
	n := r.Seed([]model.Message{
		{ID: "m1", Read: true},
		{ID: "m2", Read: true},
		{ID: "m3"},
	})
	assert.Equal(t, 1, n)
	assert.False(t, r.Has("m3"))
}
