package session

import (
	"errors"
	"testing"

	"bookkeeper/internal/core"
)

func TestLogin(t *testing.T) {
	profile := core.SeedDocument().Profile

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"correct", "admin", "123", false},
		{"wrong password", "admin", "1234", true},
		{"case sensitive user", "Admin", "123", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate()
			token, err := g.Login(profile, tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrAuthentication) {
					t.Fatalf("expected ErrAuthentication, got %v", err)
				}
				if g.State() != Unauthenticated {
					t.Fatalf("state = %v after failed login", g.State())
				}
				return
			}
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if g.State() != Authenticated || !g.Authenticated(token) {
				t.Fatalf("gate not authenticated after login")
			}
		})
	}
}

func TestFailedLoginKeepsSession(t *testing.T) {
	profile := core.SeedDocument().Profile
	attempts := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"wrong username", "root", "123"},
		{"empty", "", ""},
	}
	for _, tt := range attempts {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate()
			token, err := g.Login(profile, "admin", "123")
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if _, err := g.Login(profile, tt.username, tt.password); !errors.Is(err, ErrAuthentication) {
				t.Fatalf("expected ErrAuthentication, got %v", err)
			}
			if g.State() != Authenticated {
				t.Fatalf("state = %v after failed login", g.State())
			}
			if !g.Authenticated(token) {
				t.Fatalf("existing token rejected after failed login")
			}
		})
	}
}

func TestTokenRotationAndLogout(t *testing.T) {
	profile := core.SeedDocument().Profile
	g := NewGate()
	first, _ := g.Login(profile, "admin", "123")
	second, _ := g.Login(profile, "admin", "123")
	if first == second {
		t.Fatalf("token not rotated")
	}
	if g.Authenticated(first) {
		t.Fatalf("stale token accepted")
	}
	g.Logout()
	if g.Authenticated(second) || g.State() != Unauthenticated {
		t.Fatalf("session survived logout")
	}
	if g.Authenticated("") {
		t.Fatalf("empty token accepted")
	}
}
