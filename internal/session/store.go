package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wordtales/internal/api"
	"github.com/wordtales/internal/domain"
	"github.com/wordtales/internal/tokenstore"
)

// Fallback messages used when the backend gives no detail
const (
	MsgLoginFailed  = "Login failed"
	MsgGoogleFailed = "Google authentication failed"
	MsgSignupFailed = "Signup failed"
	MsgFetchUser    = "Failed to fetch user"
)

// Authenticator is the remote side of the session actions. *api.Client implements it.
type Authenticator interface {
	LoginWithEmail(ctx context.Context, email, password string) (*api.AuthResponse, error)
	LoginWithGoogle(ctx context.Context, credential string) (*api.AuthResponse, error)
	Signup(ctx context.Context, req api.SignupRequest) (*api.AuthResponse, error)
	Me(ctx context.Context, token string) (json.RawMessage, error)
}

// Store owns the authentication session of the local user. It mirrors the token into a
// durable slot and notifies subscribers after every change.
//
// Field mutations are serialized, but overlapping actions are not prevented: the last one to
// finish wins. Callers use Loading to suppress duplicate submissions.
type Store struct {
	auth   Authenticator
	slot   *tokenstore.Slot
	logger *slog.Logger

	mu    sync.Mutex
	state Snapshot

	// persistMu serializes slot writes; each write mirrors the state at the time it runs
	persistMu sync.Mutex

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewStore builds a store and seeds the token from the durable slot. The user profile is not
// persisted and starts empty.
func NewStore(ctx context.Context, auth Authenticator, tokens tokenstore.Store, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		auth:      auth,
		slot:      tokenstore.TokenSlot(tokens),
		logger:    logger,
		listeners: make(map[int]Listener),
	}

	token, err := s.slot.Load(ctx)
	if errors.Is(err, tokenstore.ErrSealedValue) {
		// Written with another secret, or in plaintext before encryption was enabled. The value
		// is unusable; start logged out rather than blocking every command.
		logger.Warn("stored token is unreadable, discarding it", "error", err)
		if err := s.slot.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to discard unreadable token: %w", err)
		}
		token, err = "", nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stored token: %w", err)
	}
	s.state.Token = token

	logger.Debug("session store initialized", "authenticated", token != "")
	return s, nil
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Token returns the current access token, "" when logged out
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// IsAuthenticated reports whether a token is held
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe registers l for change notifications and returns a function that removes it.
// Listeners run synchronously on the goroutine that made the change, after the state lock is
// released.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.listenersMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenersMu.Unlock()

	for _, l := range ls {
		l(snap)
	}
}

// LoginWithEmail signs in with email and password
func (s *Store) LoginWithEmail(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "login", MsgLoginFailed, func(ctx context.Context) (*api.AuthResponse, error) {
		if err := domain.ValidateCredentials(email, password); err != nil {
			return nil, err
		}
		return s.auth.LoginWithEmail(ctx, email, password)
	})
}

// LoginWithGoogle signs in with a Google ID token credential
func (s *Store) LoginWithGoogle(ctx context.Context, credential string) error {
	return s.authenticate(ctx, "google_login", MsgGoogleFailed, func(ctx context.Context) (*api.AuthResponse, error) {
		if credential == "" {
			return nil, domain.WrapValidationError("google credential", nil)
		}
		return s.auth.LoginWithGoogle(ctx, credential)
	})
}

// Signup registers a new account and signs in with it
func (s *Store) Signup(ctx context.Context, email, password, name string) error {
	return s.authenticate(ctx, "signup", MsgSignupFailed, func(ctx context.Context) (*api.AuthResponse, error) {
		if err := domain.ValidateCredentials(email, password); err != nil {
			return nil, err
		}
		return s.auth.Signup(ctx, api.SignupRequest{Email: email, Password: password, Name: name})
	})
}

// Logout clears the session and removes the durable token. Memory is cleared even when the
// slot removal fails; that error is returned.
func (s *Store) Logout(ctx context.Context) error {
	_, err := s.clear(ctx, "")
	return err
}

// clear ends the session. A non-empty expected token makes it conditional: the session is left
// alone unless it still holds that token.
func (s *Store) clear(ctx context.Context, expected string) (bool, error) {
	s.mu.Lock()
	if expected != "" && s.state.Token != expected {
		s.mu.Unlock()
		return false, nil
	}
	wasAuthenticated := s.state.Token != ""
	s.state.Token = ""
	s.state.User = nil
	s.state.Error = ""
	s.mu.Unlock()

	s.notify()

	if err := s.syncSlot(ctx); err != nil {
		s.logger.Warn("failed to remove stored token", "error", err)
		return true, err
	}

	s.logger.Info("session logged out", "was_authenticated", wasAuthenticated)
	return true, nil
}

// syncSlot writes the current in-memory token to the durable slot, removing it when empty.
// Reading the token under persistMu means the last write always reflects the last mutation.
func (s *Store) syncSlot(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	token := s.Token()
	if token == "" {
		return s.slot.Clear(ctx)
	}
	return s.slot.Save(ctx, token)
}

// FetchCurrentUser loads the profile of the current token holder. It fails with
// domain.ErrNotAuthenticated without touching state when no token is held.
func (s *Store) FetchCurrentUser(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return domain.ErrNotAuthenticated
	}

	s.begin()
	defer s.finish()

	user, err := s.auth.Me(ctx, token)
	if err != nil {
		return s.fail("fetch_user", MsgFetchUser, err)
	}

	s.mu.Lock()
	// A logout or a new login may have raced this call; only attach the profile to the
	// token it belongs to.
	if s.state.Token == token {
		s.state.User = UserProfile(user).clone()
	}
	s.mu.Unlock()

	s.logger.Debug("session user fetched")
	return nil
}

// authenticate runs one login-like action under the loading flag
func (s *Store) authenticate(ctx context.Context, action, fallback string, call func(context.Context) (*api.AuthResponse, error)) error {
	s.begin()
	defer s.finish()

	s.logger.Debug("session action started", "action", action)

	resp, err := call(ctx)
	if err != nil {
		return s.fail(action, fallback, err)
	}

	s.mu.Lock()
	s.state.Token = resp.AccessToken
	s.state.User = UserProfile(resp.User).clone()
	s.mu.Unlock()

	// The round trip already succeeded; a cancelled caller context must not leave memory and
	// the durable slot disagreeing.
	if err := s.syncSlot(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("session token not persisted", "action", action, "error", err)
		return err
	}

	s.logger.Info("session action succeeded", "action", action)
	return nil
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()
}

func (s *Store) finish() {
	s.mu.Lock()
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

// fail records the user-facing message and returns err wrapped as an auth failure. The
// original error stays reachable with errors.As / errors.Is.
func (s *Store) fail(action, fallback string, err error) error {
	msg := fallback
	if detail, ok := api.ErrorDetail(err); ok {
		msg = detail
	} else if domain.IsValidationError(err) {
		msg = domain.PublicMessage(err)
	}

	s.mu.Lock()
	s.state.Error = msg
	s.mu.Unlock()

	s.logger.Warn("session action failed", "action", action, "message", msg, "error", err)
	return domain.WrapAuthFailed(msg, err)
}
