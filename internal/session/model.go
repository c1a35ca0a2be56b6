package session

import (
	"bytes"
	"encoding/json"
	"errors"
)

// UserProfile is the backend's user object, kept verbatim. This layer never interprets its
// fields; callers decode what they need.
type UserProfile json.RawMessage

// IsEmpty reports whether no profile is held
func (u UserProfile) IsEmpty() bool {
	trimmed := bytes.TrimSpace(u)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the profile into v
func (u UserProfile) Decode(v any) error {
	if u.IsEmpty() {
		return errors.New("no user profile")
	}
	return json.Unmarshal(u, v)
}

func (u UserProfile) MarshalJSON() ([]byte, error) {
	if u.IsEmpty() {
		return []byte("null"), nil
	}
	return u.clone(), nil
}

func (u *UserProfile) UnmarshalJSON(b []byte) error {
	*u = UserProfile(b).clone()
	return nil
}

func (u UserProfile) clone() UserProfile {
	if u == nil {
		return nil
	}
	out := make(UserProfile, len(u))
	copy(out, u)
	return out
}

// Snapshot is an immutable copy of the session state
type Snapshot struct {
	Token   string      `json:"-"`
	User    UserProfile `json:"user"`
	Loading bool        `json:"loading"`
	Error   string      `json:"error,omitempty"`
}

// IsAuthenticated holds iff a token is present
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != ""
}

func (s Snapshot) clone() Snapshot {
	s.User = s.User.clone()
	return s
}

// Listener receives a snapshot after every state change
type Listener func(Snapshot)
