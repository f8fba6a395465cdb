// Package session holds the authenticated back-office identity: explicit
// login/restore/logout lifecycle instead of ambient global token lookups.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/directory"
)

// Sentinel errors for session operations.
var (
	// ErrNotAdmin rejects a credential check that succeeded upstream but
	// belongs to a non-admin segment. Only admins may use the back office.
	ErrNotAdmin = errors.New("only admin accounts may sign in")
	// ErrNoSession is returned when an operation needs an authenticated
	// session and none is active.
	ErrNoSession = errors.New("no active session")
)

// Manager owns the session lifecycle. It is safe for concurrent use.
type Manager struct {
	api    *apiclient.Client
	tokens *Tokens
	store  Store

	mu   sync.RWMutex
	user *directory.User
}

// NewManager wires a Manager over the shared token state, the upstream
// client, and a persistence store.
func NewManager(api *apiclient.Client, tokens *Tokens, store Store) *Manager {
	return &Manager{
		api:    api,
		tokens: tokens,
		store:  store,
	}
}

// loginResponse is the upstream credential-check contract.
type loginResponse struct {
	User         directory.User `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int            `json:"expiresIn"`
}

// Login checks credentials upstream and, when the account is an admin
// segment, installs and persists the session. A successful credential check
// for any other segment is rejected with ErrNotAdmin and nothing is stored.
func (m *Manager) Login(ctx context.Context, userID, password string) (*directory.User, error) {
	body, err := m.api.Post(ctx, "/auth/login", map[string]string{
		"user_id":  userID,
		"password": password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "login")
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode login response")
	}

	if !resp.User.Segment.IsAdmin() {
		return nil, ErrNotAdmin
	}

	m.tokens.UpdateTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)

	m.mu.Lock()
	m.user = &resp.User
	m.mu.Unlock()

	state := &State{
		User:         resp.User,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    m.tokens.ExpiresAt(),
	}
	if err := m.store.Save(state); err != nil {
		// The in-memory session is fine; only restart survival is lost.
		zctx.From(ctx).Warn("Persist session failed", zap.Error(err))
	}

	return &resp.User, nil
}

// Restore loads a persisted session and revalidates it upstream via
// /auth/me. It returns false when no usable session exists; a stale or
// rejected session is cleared rather than kept half-alive.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	state, err := m.store.Load()
	if err != nil {
		return false, errors.Wrap(err, "load session")
	}
	if state == nil || state.AccessToken == "" {
		return false, nil
	}

	m.tokens.UpdateTokens(state.AccessToken, state.RefreshToken, 0)

	body, err := m.api.Get(ctx, "/auth/me", nil)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			zctx.From(ctx).Info("Persisted session rejected upstream, clearing")
			return false, m.Logout(ctx)
		}
		// Leave tokens in place on transport errors: upstream may only be
		// temporarily unreachable.
		return false, errors.Wrap(err, "validate session")
	}

	payload, err := apiclient.UnwrapObject(body, "user")
	if err != nil {
		return false, errors.Wrap(err, "decode session user")
	}
	var user directory.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return false, errors.Wrap(err, "decode session user")
	}
	if !user.Segment.IsAdmin() {
		return false, m.Logout(ctx)
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	return true, nil
}

// Logout clears the in-memory session and the persisted state. The
// upstream API keeps no session to invalidate; dropping the tokens is the
// whole teardown.
func (m *Manager) Logout(_ context.Context) error {
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	m.tokens.Clear()
	if err := m.store.Clear(); err != nil {
		return errors.Wrap(err, "clear persisted session")
	}
	return nil
}

// Current returns the authenticated user, or ErrNoSession.
func (m *Manager) Current() (*directory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, ErrNoSession
	}
	u := *m.user
	return &u, nil
}

// Authenticated reports whether a user is signed in.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}
