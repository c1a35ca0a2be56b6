// Package tokenstore provides the durable key-value surface that keeps the session token
// across process restarts.
package tokenstore

import (
	"context"
	"regexp"

	"github.com/wordtales/internal/domain"
)

// TokenKey is the slot holding the access token.
const TokenKey = "token"

// keyPattern keeps keys safe as file names and SQL/redis identifiers.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// Store is a durable string key-value surface. Get returns "" and a nil error for an absent
// key; Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Slot binds a Store to one key.
type Slot struct {
	store Store
	key   string
}

// NewSlot returns the slot named key in store
func NewSlot(store Store, key string) *Slot {
	return &Slot{store: store, key: key}
}

// TokenSlot returns the access token slot of store
func TokenSlot(store Store) *Slot {
	return NewSlot(store, TokenKey)
}

// Key returns the slot name
func (s *Slot) Key() string {
	return s.key
}

// Load reads the slot; "" means empty
func (s *Slot) Load(ctx context.Context) (string, error) {
	v, err := s.store.Get(ctx, s.key)
	if err != nil {
		return "", domain.WrapTokenStore("get "+s.key, err)
	}
	return v, nil
}

// Save writes value into the slot
func (s *Slot) Save(ctx context.Context, value string) error {
	if err := s.store.Set(ctx, s.key, value); err != nil {
		return domain.WrapTokenStore("set "+s.key, err)
	}
	return nil
}

// Clear removes the slot
func (s *Slot) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return domain.WrapTokenStore("delete "+s.key, err)
	}
	return nil
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return domain.WrapValidationError("token store key", nil)
	}
	return nil
}
