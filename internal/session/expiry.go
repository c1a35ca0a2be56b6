package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/robfig/cron/v3"
)

// TokenExpiry reads the exp claim of a JWT without verifying its signature; the client has no
// key and only needs to know when the backend will stop accepting the token. ok is false for
// non-JWT tokens and tokens without exp.
func TokenExpiry(token string) (expiresAt time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0), true
}

// LogoutIfExpired logs out when the held token's exp claim is at or before now,
// and only if the session still holds that token when the logout runs.
func (s *Store) LogoutIfExpired(ctx context.Context, now time.Time) (bool, error) {
	token := s.Token()
	expiresAt, ok := TokenExpiry(token)
	if !ok || now.Before(expiresAt) {
		return false, nil
	}
	return s.expire(ctx, token, expiresAt)
}

func (s *Store) expire(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	cleared, err := s.clear(ctx, token)
	if cleared {
		s.logger.Info("session token expired", "expired_at", expiresAt)
	}
	return cleared, err
}

// Watcher periodically logs out expired sessions
type Watcher struct {
	store  *Store
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time
}

// NewWatcher schedules the expiry check on the cron spec (e.g. "@every 30s")
func NewWatcher(store *Store, spec string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		store:  store,
		cron:   cron.New(),
		logger: logger,
		now:    time.Now,
	}
	if _, err := w.cron.AddFunc(spec, w.Check); err != nil {
		return nil, fmt.Errorf("invalid expiry check schedule %q: %w", spec, err)
	}
	return w, nil
}

// Check runs one expiry check
func (w *Watcher) Check() {
	if _, err := w.store.LogoutIfExpired(context.Background(), w.now()); err != nil {
		w.logger.Warn("expiry logout failed", "error", err)
	}
}

// Start begins the schedule in its own goroutine
func (w *Watcher) Start() {
	w.cron.Start()
	w.logger.Debug("session expiry watcher started")
}

// Stop halts the schedule and waits for a running check to finish
func (w *Watcher) Stop() {
	<-w.cron.Stop().Done()
}
