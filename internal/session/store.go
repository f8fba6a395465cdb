package session

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-faster/errors"

	"github.com/sal-retail/backoffice/internal/domain/directory"
)

// State is the persisted snapshot of an authenticated session: the admin
// user plus the token pair, enough to restore without re-login.
type State struct {
	User         directory.User `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// Store persists session state across process restarts.
type Store interface {
	// Load returns the saved state, or (nil, nil) when none exists.
	Load() (*State, error)
	Save(state *State) error
	Clear() error
}

// FileStore keeps the session in a mode-0600 JSON file, the process
// equivalent of the browser's local storage.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read session file")
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, "decode session file")
	}
	return &state, nil
}

func (s *FileStore) Save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session state")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "write session file")
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove session file")
	}
	return nil
}

// MemoryStore is a Store that forgets everything on restart. Used in tests
// and when no session file path is configured.
type MemoryStore struct {
	state *State
}

func (s *MemoryStore) Load() (*State, error) { return s.state, nil }

func (s *MemoryStore) Save(state *State) error {
	s.state = state
	return nil
}

func (s *MemoryStore) Clear() error {
	s.state = nil
	return nil
}
