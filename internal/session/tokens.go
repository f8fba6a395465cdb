package session

import (
	"sync"
	"time"
)

// Tokens is the thread-safe token state shared between the API client
// (which reads and refreshes) and the Manager (which logs in and clears).
type Tokens struct {
	mu        sync.RWMutex
	access    string
	refresh   string
	expiresAt time.Time
}

// AccessToken returns the current access token, or "" when logged out.
func (t *Tokens) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.access
}

// RefreshToken returns the current refresh token, or "" when logged out.
func (t *Tokens) RefreshToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refresh
}

// ExpiresAt returns when the access token expires. Zero when unknown.
func (t *Tokens) ExpiresAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.expiresAt
}

// UpdateTokens replaces the token pair. expiresIn is seconds from now;
// zero leaves the expiry unknown.
func (t *Tokens) UpdateTokens(access, refresh string, expiresIn int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.access = access
	t.refresh = refresh
	if expiresIn > 0 {
		t.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	} else {
		t.expiresAt = time.Time{}
	}
}

// Clear wipes all token state.
func (t *Tokens) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.access = ""
	t.refresh = ""
	t.expiresAt = time.Time{}
}
