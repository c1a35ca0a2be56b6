package tokenstore

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wordtales/internal/config"
	"github.com/wordtales/internal/domain"
	"github.com/wordtales/internal/logger"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir(), "")
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		},
		"file encrypted": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir(), "correct horse battery staple")
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "session.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			return s
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			return NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
		},
		"postgres": func(t *testing.T) Store {
			dsn := os.Getenv("TOKENSTORE_TEST_POSTGRES_DSN")
			if dsn == "" {
				t.Skip("TOKENSTORE_TEST_POSTGRES_DSN not set")
			}
			s, err := NewPostgresStore(context.Background(), dsn, "test-"+strings.ReplaceAll(t.Name(), "/", "-"))
			if err != nil {
				t.Fatalf("NewPostgresStore: %v", err)
			}
			return s
		},
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer store.Close()

			// Absent slot reads as empty
			got, err := store.Get(ctx, TokenKey)
			if err != nil {
				t.Fatalf("Get on empty store: %v", err)
			}
			if got != "" {
				t.Errorf("expected empty value, got %q", got)
			}

			if err := store.Set(ctx, TokenKey, "T1"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got, _ := store.Get(ctx, TokenKey); got != "T1" {
				t.Errorf("Get after Set = %q, want T1", got)
			}

			// Overwrite
			if err := store.Set(ctx, TokenKey, "T2"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			if got, _ := store.Get(ctx, TokenKey); got != "T2" {
				t.Errorf("Get after overwrite = %q, want T2", got)
			}

			if err := store.Delete(ctx, TokenKey); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if got, _ := store.Get(ctx, TokenKey); got != "" {
				t.Errorf("Get after Delete = %q, want empty", got)
			}

			// Delete is idempotent
			if err := store.Delete(ctx, TokenKey); err != nil {
				t.Errorf("second Delete: %v", err)
			}
		})
	}
}

func TestStore_RejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	keys := []string{"", "../token", "a/b", strings.Repeat("k", 65)}

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer store.Close()

			for _, k := range keys {
				if err := store.Set(ctx, k, "v"); !domain.IsValidationError(err) {
					t.Errorf("Set(%q) error = %v, want validation error", k, err)
				}
			}
		})
	}
}

func TestFileStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir, "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := first.Set(ctx, TokenKey, "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, TokenKey))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file permissions = %o, want 600", perm)
	}

	second, _ := NewFileStore(dir, "")
	if got, _ := second.Get(ctx, TokenKey); got != "persisted" {
		t.Errorf("reopened store Get = %q, want persisted", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the token file, found %d entries", len(entries))
	}
}

func TestFileStore_EncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, _ := NewFileStore(dir, "secret-one")
	if err := store.Set(ctx, TokenKey, "eyJhbGciOi.plain.token"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, _ := os.ReadFile(filepath.Join(dir, TokenKey))
	if strings.Contains(string(raw), "plain.token") {
		t.Error("token stored in plaintext despite encryption secret")
	}
	if !strings.HasPrefix(string(raw), sealedPrefix) {
		t.Errorf("expected sealed prefix, got %q", raw)
	}

	wrong, _ := NewFileStore(dir, "secret-two")
	if _, err := wrong.Get(ctx, TokenKey); err == nil {
		t.Error("expected error opening with the wrong secret")
	}
}

func TestSealer_RoundTripAndTamper(t *testing.T) {
	s := NewSealer("pass")

	a, err := s.Seal("value")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, _ := s.Seal("value")
	if a == b {
		t.Error("expected distinct ciphertexts for the same plaintext")
	}

	got, err := s.Open(a)
	if err != nil || got != "value" {
		t.Fatalf("Open = %q, %v", got, err)
	}

	raw, _ := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(a, sealedPrefix))
	raw[len(raw)-1] ^= 0xff
	tampered := sealedPrefix + base64.RawStdEncoding.EncodeToString(raw)
	if _, err := s.Open(tampered); err == nil {
		t.Error("expected tampered value to fail")
	}
	if _, err := s.Open("v1:"); err == nil {
		t.Error("expected short value to fail")
	}
	if _, err := s.Open("plaintext"); err == nil {
		t.Error("expected unsealed value to fail")
	}
}

func TestSlot(t *testing.T) {
	ctx := context.Background()
	slot := TokenSlot(NewMemoryStore())

	if slot.Key() != "token" {
		t.Errorf("Key() = %q, want token", slot.Key())
	}
	if err := slot.Save(ctx, "T"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := slot.Load(ctx); got != "T" {
		t.Errorf("Load = %q, want T", got)
	}
	if err := slot.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := slot.Load(ctx); got != "" {
		t.Errorf("Load after Clear = %q, want empty", got)
	}

	bad := NewSlot(NewMemoryStore(), "../escape")
	if err := bad.Save(ctx, "x"); !domain.IsInfrastructureError(err) {
		t.Errorf("expected token store error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.TokenStoreConfig
		wantErr bool
	}{
		{name: "file", cfg: config.TokenStoreConfig{Backend: config.TokenStoreFile, Path: dir}},
		{name: "sqlite", cfg: config.TokenStoreConfig{Backend: config.TokenStoreSQLite, Path: filepath.Join(dir, "s.db")}},
		{name: "memory", cfg: config.TokenStoreConfig{Backend: config.TokenStoreMemory}},
		{name: "unknown", cfg: config.TokenStoreConfig{Backend: "etcd"}, wantErr: true},
		{name: "redis bad dsn", cfg: config.TokenStoreConfig{Backend: config.TokenStoreRedis, DSN: "::not a url"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, tt.cfg, logger.Discard())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if store != nil {
				store.Close()
			}
		})
	}
}
