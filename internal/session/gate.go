// Package session implements the single-user login gate.
//
// Credentials are compared as plain strings against the stored profile. There
// is no expiry and no lockout; one session exists at a time and logging in
// again invalidates the previous token.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"bookkeeper/internal/core"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

var ErrAuthentication = errors.New("invalid username or password")

// Gate holds the session state. It is safe for concurrent use.
type Gate struct {
	mu    sync.RWMutex
	state State
	token string
}

func NewGate() *Gate {
	return &Gate{}
}

// Login compares username and password with the profile, case-sensitively.
// On success a fresh token is issued; on failure the current session, if
// any, is left as it was.
func (g *Gate) Login(profile core.Profile, username, password string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if username != profile.Username || password != profile.PasswordHash {
		return "", ErrAuthentication
	}
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	g.state = Authenticated
	g.token = token
	return token, nil
}

func (g *Gate) Logout() {
	g.mu.Lock()
	g.state = Unauthenticated
	g.token = ""
	g.mu.Unlock()
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Authenticated reports whether token belongs to the current session.
func (g *Gate) Authenticated(token string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != Authenticated || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.token)) == 1
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
