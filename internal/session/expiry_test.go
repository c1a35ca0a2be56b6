package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/wordtales/internal/logger"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.StandardClaims{Subject: "1"}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = expiresAt.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		token  string
		want   time.Time
		wantOK bool
	}{
		{name: "with exp", token: signedToken(t, exp), want: exp, wantOK: true},
		{name: "without exp", token: signedToken(t, time.Time{})},
		{name: "opaque token", token: "not-a-jwt"},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TokenExpiry(tt.token)
			if ok != tt.wantOK {
				t.Fatalf("TokenExpiry() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("TokenExpiry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_LogoutIfExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		token      string
		wantLogout bool
	}{
		{name: "expired", token: signedToken(t, now.Add(-time.Minute)), wantLogout: true},
		{name: "expires now", token: signedToken(t, now), wantLogout: true},
		{name: "still valid", token: signedToken(t, now.Add(time.Hour))},
		{name: "opaque token is kept", token: "opaque"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.token)

			loggedOut, err := f.store.LogoutIfExpired(context.Background(), now)
			if err != nil {
				t.Fatalf("LogoutIfExpired() error = %v", err)
			}
			if loggedOut != tt.wantLogout {
				t.Errorf("LogoutIfExpired() = %v, want %v", loggedOut, tt.wantLogout)
			}
			if f.store.IsAuthenticated() == tt.wantLogout {
				t.Errorf("IsAuthenticated() = %v after check", f.store.IsAuthenticated())
			}
			if tt.wantLogout && f.durableToken(t) != "" {
				t.Error("expected durable token removed")
			}
		})
	}
}

func TestStore_ExpireKeepsNewerSession(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expired := signedToken(t, now.Add(-time.Minute))
	f := newFixture(t, expired)

	// A login lands after the watcher read the expired token but before it logs out
	f.backend.respond("/auth/login", http.StatusOK, `{"access_token":"FRESH"}`)
	if err := f.store.LoginWithEmail(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	cleared, err := f.store.expire(context.Background(), expired, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("expire() error = %v", err)
	}
	if cleared {
		t.Error("expected expire to skip a session holding a different token")
	}
	if got := f.store.Token(); got != "FRESH" {
		t.Errorf("Token = %q, want FRESH", got)
	}
	if got := f.durableToken(t); got != "FRESH" {
		t.Errorf("durable token = %q, want FRESH", got)
	}
}

func TestWatcher_Check(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, signedToken(t, now.Add(time.Minute)))

	w, err := NewWatcher(f.store, "@every 1h", logger.Discard())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.now = func() time.Time { return now }

	w.Check()
	if !f.store.IsAuthenticated() {
		t.Fatal("expected session to survive before expiry")
	}

	w.now = func() time.Time { return now.Add(2 * time.Minute) }
	w.Check()
	if f.store.IsAuthenticated() {
		t.Error("expected watcher to log out the expired session")
	}

	w.Start()
	w.Stop()
}

func TestNewWatcher_InvalidSchedule(t *testing.T) {
	f := newFixture(t, "")
	if _, err := NewWatcher(f.store, "every now and then", logger.Discard()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
