// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return token
}

// =============================================================================
// IDENTITY TESTS
// =============================================================================

func TestFromToken_Claims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tests := []struct {
		name     string
		claims   jwt.MapClaims
		wantID   string
		wantName string
	}{
		{"id claim", jwt.MapClaims{"id": "u1", "name": "Alice Smith"}, "u1", "Alice Smith"},
		{"mongo id claim", jwt.MapClaims{"_id": "u2", "firstName": "Bob", "lastName": "Jones"}, "u2", "Bob Jones"},
		{"userId claim", jwt.MapClaims{"userId": "u3", "email": "c@hr.example"}, "u3", "c@hr.example"},
		{"sub fallback", jwt.MapClaims{"sub": "u4", "exp": exp.Unix()}, "u4", "u4"},
		{"numeric id", jwt.MapClaims{"id": float64(42)}, "42", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := FromToken(signToken(t, tt.claims))
			if err != nil {
				t.Fatalf("FromToken failed: %v", err)
			}
			if id.UserID != tt.wantID {
				t.Errorf("UserID = %q, want %q", id.UserID, tt.wantID)
			}
			if id.DisplayName() != tt.wantName {
				t.Errorf("DisplayName() = %q, want %q", id.DisplayName(), tt.wantName)
			}
		})
	}
}

func TestFromToken_Expiry(t *testing.T) {
	exp := time.Now().Add(-time.Minute)
	id, err := FromToken(signToken(t, jwt.MapClaims{"id": "u1", "exp": exp.Unix()}))
	if err != nil {
		t.Fatalf("FromToken failed: %v", err)
	}
	if !id.Expired(time.Now()) {
		t.Error("expected identity to be expired")
	}
	if (Identity{UserID: "u1"}).Expired(time.Now()) {
		t.Error("identity without exp must never expire")
	}
}

func TestFromToken_Errors(t *testing.T) {
	if _, err := FromToken("  "); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
	if _, err := FromToken("not-a-jwt"); err == nil {
		t.Error("expected parse error for garbage token")
	}
	if _, err := FromToken(signToken(t, jwt.MapClaims{"role": "employee"})); !errors.Is(err, ErrNoUserClaim) {
		t.Errorf("expected ErrNoUserClaim, got %v", err)
	}
}

func TestFromToken_BearerPrefix(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"id": "u1"})
	id, err := FromToken("Bearer " + token)
	if err != nil {
		t.Fatalf("FromToken failed: %v", err)
	}
	if id.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", id.UserID)
	}
}

func TestNormalizeToken(t *testing.T) {
	tests := map[string]string{
		"abc":            "abc",
		"  abc\n":        "abc",
		"Bearer abc":     "abc",
		" Bearer  abc  ": "abc",
		"":               "",
	}
	for in, want := range tests {
		if got := NormalizeToken(in); got != want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

// =============================================================================
// MANAGER TESTS
// =============================================================================

func TestManager_SwitchBumpsGeneration(t *testing.T) {
	m := NewManager()
	if !m.Identity().IsZero() {
		t.Fatal("new manager should be signed out")
	}

	gen1 := m.Switch(Identity{UserID: "u1"}, "tok1")
	gen2 := m.Switch(Identity{UserID: "u2"}, "tok2")
	if gen2 <= gen1 {
		t.Errorf("generation did not advance: %d then %d", gen1, gen2)
	}
	if m.IsCurrent(gen1) {
		t.Error("old generation must not be current")
	}
	if !m.IsCurrent(gen2) {
		t.Error("latest generation must be current")
	}
	if m.Token() != "tok2" {
		t.Errorf("Token() = %q, want tok2", m.Token())
	}
}

func TestManager_LoginAndLogout(t *testing.T) {
	m := NewManager()
	var seen []string
	m.OnChange(func(id Identity) { seen = append(seen, id.UserID) })

	id, err := m.Login(signToken(t, jwt.MapClaims{"id": "u1"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if id.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", id.UserID)
	}
	m.Logout()
	if !m.Identity().IsZero() || m.Token() != "" {
		t.Error("Logout should clear identity and token")
	}
	if len(seen) != 2 || seen[0] != "u1" || seen[1] != "" {
		t.Errorf("listener saw %v", seen)
	}
}

func TestManager_LoginRejectsBadToken(t *testing.T) {
	m := NewManager()
	if _, err := m.Login(""); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
	if m.Generation() != 0 {
		t.Error("failed login must not switch identity")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Switch(Identity{UserID: "u"}, "tok")
		}()
		go func() {
			defer wg.Done()
			_, _ = m.Current()
			_ = m.IsCurrent(1)
		}()
	}
	wg.Wait()
	if m.Generation() != 50 {
		t.Errorf("Generation() = %d, want 50", m.Generation())
	}
}
