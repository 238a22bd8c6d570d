package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// TokenScope selects where a bearer token is persisted. The scope is resolved
// once at login from the "remember me" choice and carried by the session
// store, never re-derived per call site.
type TokenScope int

const (
	// ScopeSession keeps the token in process memory only; it is gone when
	// the process exits.
	ScopeSession TokenScope = iota
	// ScopeDurable persists the token to a file so a fresh process can
	// resume the session.
	ScopeDurable
)

type tokenFile struct {
	Token string `json:"token"`
}

// TokenStore owns the bearer token across both scopes. Lookup returns the
// first non-empty token found, durable scope first.
type TokenStore struct {
	mu           sync.Mutex
	path         string
	sessionToken string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// DefaultTokenPath locates the durable token file under the user config
// directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(dir, "society", "token.json"), nil
}

func (s *TokenStore) Save(token string, scope TokenScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope == ScopeSession {
		s.sessionToken = token
		return nil
	}

	raw, err := json.Marshal(tokenFile{Token: token})
	if err != nil {
		return errors.Wrap(err, "marshal token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create token dir")
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return errors.Wrap(err, "write token file")
	}
	return nil
}

// Load returns the current token and the scope it was found in. An empty
// token means no scope holds one.
func (s *TokenStore) Load() (string, TokenScope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, err := os.ReadFile(s.path); err == nil {
		var tf tokenFile
		if err := json.Unmarshal(raw, &tf); err == nil && len(tf.Token) > 0 {
			return tf.Token, ScopeDurable
		}
	}
	if len(s.sessionToken) > 0 {
		return s.sessionToken, ScopeSession
	}
	return "", ScopeSession
}

// ClearAll wipes both scopes unconditionally so a leftover token in the
// other scope cannot resurrect a session after logout.
func (s *TokenStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionToken = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove token file")
	}
	return nil
}
