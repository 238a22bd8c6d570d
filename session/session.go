package session

import (
	"context"
	"sync"

	"github.com/campuside/society-client/client"
	"github.com/campuside/society-client/model"
	Logger "github.com/campuside/society-client/utils/log"
)

var (
	Log = Logger.LogV2
)

// Store owns the current authenticated identity. The authenticated flag is
// always derived from the user record being present, never set on its own.
type Store struct {
	mu      sync.RWMutex
	api     *client.Client
	user    *model.User
	loading bool
	// scope is resolved once at login from the "remember me" choice and
	// reused for the rest of the session.
	scope client.TokenScope
}

func NewStore(api *client.Client) *Store {
	return &Store{api: api, scope: client.ScopeSession}
}

// Init runs the one-time user-info fetch when a token already exists in
// either scope. Any failure (network, expired token) degrades to
// unauthenticated rather than surfacing a blocking error; the route guard
// reacts to IsAuthenticated, not to the failure itself.
func (s *Store) Init(ctx context.Context) {
	token, scope := s.api.Tokens().Load()
	if len(token) == 0 {
		return
	}

	s.mu.Lock()
	s.loading = true
	s.scope = scope
	s.mu.Unlock()

	user, err := s.api.GetUserInfo(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		Log.Infof("session init: user info fetch failed, treating as unauthenticated: ", err)
		s.user = nil
		return
	}
	s.user = user
}

// Login authenticates and stores the token in the scope chosen by remember.
// The error is propagated for inline form display; the HTTP wrapper has
// already fired the global toast (dual reporting is intentional).
func (s *Store) Login(ctx context.Context, email, password string, remember bool) error {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	scope := client.ScopeSession
	if remember {
		scope = client.ScopeDurable
	}
	if err := s.api.Tokens().Save(res.Token, scope); err != nil {
		return err
	}

	s.mu.Lock()
	s.scope = scope
	user := res.User
	s.user = &user
	s.mu.Unlock()

	// The login payload already carries the identity; refresh anyway so the
	// session reflects server-side derived fields.
	return s.RefreshUser(ctx)
}

// Logout clears the in-memory user and both token scopes unconditionally.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.scope = client.ScopeSession
	s.mu.Unlock()

	return s.api.Tokens().ClearAll()
}

// RefreshUser re-runs the user-info fetch, exposed for explicit
// revalidation after profile edits.
func (s *Store) RefreshUser(ctx context.Context) error {
	user, err := s.api.GetUserInfo(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.user = nil
		return err
	}
	s.user = user
	return nil
}

// User returns a copy of the identity record, or nil when unauthenticated.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// IsLoading reports whether the initial user-info fetch is in flight.
// Protected routing must block on this rather than assume unauthenticated.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Scope reports where the current session's token lives.
func (s *Store) Scope() client.TokenScope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}
