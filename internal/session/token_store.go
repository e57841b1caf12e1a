package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore persists the auth token under a well-known path so a fresh
// process can restore the session. An absent file means unauthenticated.
// It is the only writer of that file; concurrent processes are
// last-writer-wins. Implements api.TokenProvider.
type TokenStore struct {
	mu     sync.Mutex
	path   string
	token  string
	loaded bool
}

// NewTokenStore creates a TokenStore backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Token returns the current token, loading it from disk on first use.
// Returns "" when no token is persisted.
func (s *TokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.token
}

// Reload discards the cached value and re-reads the file. Initialize uses
// this so a fresh look at the store reflects the last writer.
func (s *TokenStore) Reload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.loadLocked()
	return s.token
}

func (s *TokenStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.token = ""
		return
	}
	s.token = strings.TrimSpace(string(data))
}

// Save persists the token durably.
func (s *TokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	s.token = token
	s.loaded = true
	return nil
}

// Clear discards the persisted token. Removing an already-absent file is
// not an error.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
