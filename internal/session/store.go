package session

import (
	"context"
	"errors"
	"sync"

	"macromate-client/internal/api"
	"macromate-client/pkg/logger"
)

// Status is the authentication state of the session.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticating
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// AuthAPI is the slice of the service client the session store needs.
type AuthAPI interface {
	Signup(ctx context.Context, req api.SignupRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	UserInfo(ctx context.Context) (*api.UserProfile, error)
}

// Snapshot is an observable copy of the session state. User is present
// exactly when Status is StatusAuthenticated. Loading is true until
// Initialize has resolved one way or the other.
type Snapshot struct {
	Status  Status
	User    *api.UserProfile
	Loading bool
}

// Result is the outcome of a login or signup attempt. Error carries the
// collaborator's payload verbatim for inline display.
type Result struct {
	Success bool
	Error   string
}

// Store is the single authoritative source of "who is logged in".
// Dependent views subscribe for state changes instead of polling.
type Store struct {
	api    AuthAPI
	tokens *TokenStore
	log    *logger.Logger

	mu      sync.Mutex
	status  Status
	user    *api.UserProfile
	loading bool
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates a Store. It reports Loading until Initialize resolves.
func NewStore(authAPI AuthAPI, tokens *TokenStore, log *logger.Logger) *Store {
	return &Store{
		api:     authAPI,
		tokens:  tokens,
		log:     log,
		status:  StatusUnauthenticated,
		loading: true,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Status: s.status, User: s.user, Loading: s.loading}
}

// Subscribe registers fn for state changes and returns an unsubscribe func.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// publish snapshots the state and subscriber list under the lock, then
// invokes callbacks outside it so subscribers may call back into the store.
func (s *Store) publish() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Initialize restores the session from the persisted token, if any. A token
// alone does not establish identity: the profile fetch must succeed, and any
// failure (network or rejection) discards the token and fails closed to
// unauthenticated. Loading stays true until this resolves.
func (s *Store) Initialize(ctx context.Context) {
	token := s.tokens.Reload()
	if token == "" {
		s.setUnauthenticated(false)
		return
	}

	s.mu.Lock()
	s.status = StatusAuthenticating
	s.mu.Unlock()
	s.publish()

	profile, err := s.api.UserInfo(ctx)
	if err != nil {
		s.log.Infow("stored token rejected, clearing session", "error", err)
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.log.Warnw("failed to clear token", "error", clearErr)
		}
		s.setUnauthenticated(false)
		return
	}

	s.mu.Lock()
	s.status = StatusAuthenticated
	s.user = profile
	s.loading = false
	s.mu.Unlock()
	s.publish()
}

// Login exchanges credentials for a token, persists it, and performs the
// mandatory identity fetch. A failed attempt leaves session state untouched.
func (s *Store) Login(ctx context.Context, creds api.Credentials) Result {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return Result{Success: false, Error: errorPayload(err, "Login failed")}
	}
	return s.adoptToken(ctx, resp.Token)
}

// Signup registers an account and establishes a session the same way Login
// does.
func (s *Store) Signup(ctx context.Context, req api.SignupRequest) Result {
	resp, err := s.api.Signup(ctx, req)
	if err != nil {
		return Result{Success: false, Error: errorPayload(err, "Signup failed")}
	}
	return s.adoptToken(ctx, resp.Token)
}

func (s *Store) adoptToken(ctx context.Context, token string) Result {
	if err := s.tokens.Save(token); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	// The identity fetch is not skippable: a token alone does not
	// establish the user.
	profile, err := s.api.UserInfo(ctx)
	if err != nil {
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.log.Warnw("failed to clear token", "error", clearErr)
		}
		s.setUnauthenticated(false)
		return Result{Success: false, Error: errorPayload(err, "Failed to fetch account info")}
	}

	s.mu.Lock()
	s.status = StatusAuthenticated
	s.user = profile
	s.loading = false
	s.mu.Unlock()
	s.publish()

	return Result{Success: true}
}

// Logout tells the service to invalidate the token (best-effort) and then
// unconditionally clears local state. Local cleanup happens even when the
// remote call fails.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warnw("remote logout failed, clearing local session anyway", "error", err)
	}
	if err := s.tokens.Clear(); err != nil {
		s.log.Warnw("failed to clear token", "error", err)
	}
	s.setUnauthenticated(false)
}

// Invalidate resets the session after a stale token is detected elsewhere
// (an ErrUnauthorized from any resource call).
func (s *Store) Invalidate() {
	if err := s.tokens.Clear(); err != nil {
		s.log.Warnw("failed to clear token", "error", err)
	}
	s.setUnauthenticated(false)
}

// HandleUnauthorized invalidates the session when err reports a rejected
// token. Frontends call this on every resource failure; a true return means
// the user has to sign in again.
func (s *Store) HandleUnauthorized(err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	s.log.Infow("token rejected by the service, resetting session")
	s.Invalidate()
	return true
}

func (s *Store) setUnauthenticated(loading bool) {
	s.mu.Lock()
	s.status = StatusUnauthenticated
	s.user = nil
	s.loading = loading
	s.mu.Unlock()
	s.publish()
}

// errorPayload surfaces the service's error payload verbatim when there is
// one, falling back to a caller-supplied message.
func errorPayload(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return fallback + ": " + err.Error()
	}
	return fallback
}
