package store

import "sync"

// TokenState is a copy of everything [Tokens] holds.
type TokenState struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Expired      bool   `json:"expired,omitempty"`
}

// Tokens holds the access token, the refresh token and the expired flag.
type Tokens struct {
	mu    sync.RWMutex
	state TokenState
}

// Set replaces both tokens. The expired flag is left untouched.
func (t *Tokens) Set(accessToken, refreshToken string) {
	t.mu.Lock()
	t.state.AccessToken = accessToken
	t.state.RefreshToken = refreshToken
	t.mu.Unlock()
}

func (t *Tokens) SetAccessToken(token string) {
	t.mu.Lock()
	t.state.AccessToken = token
	t.mu.Unlock()
}

func (t *Tokens) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.AccessToken
}

func (t *Tokens) RefreshToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.RefreshToken
}

func (t *Tokens) Expired() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Expired
}

// SetExpired flips the expired flag and reports the previous value.
func (t *Tokens) SetExpired(expired bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.state.Expired
	t.state.Expired = expired
	return prev
}

// Clear drops both tokens and resets the expired flag.
func (t *Tokens) Clear() {
	t.mu.Lock()
	t.state = TokenState{}
	t.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (t *Tokens) Snapshot() TokenState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Restore replaces the current state with s.
func (t *Tokens) Restore(s TokenState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}
