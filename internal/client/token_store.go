package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/isdelr/socialquest-be/internal/auth"
)

// FileTokenStore persists a session as a JSON file readable only by its owner.
type FileTokenStore struct {
	Path string
}

type storedSession struct {
	UserID string `json:"userId"`
	auth.TokenPair
}

// Save writes the session to disk. An invalidated session removes the file.
func (f FileTokenStore) Save(s *Session) error {
	if !s.Valid() {
		return f.Clear()
	}
	data, err := json.MarshalIndent(storedSession{UserID: s.UserID(), TokenPair: s.Tokens()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(f.Path, data, 0o600)
}

// Load reads a saved session. It returns ErrSessionExpired when none exists.
func (f FileTokenStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if stored.AccessToken == "" {
		return nil, ErrSessionExpired
	}
	return NewSession(stored.UserID, stored.TokenPair), nil
}

// Clear removes the session file if present.
func (f FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
