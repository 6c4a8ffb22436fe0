package chat

import (
	"fmt"
)

// StorageKey is the single local storage key the session is mirrored under.
const StorageKey = "haiintel_chat_session"

// Session is the chronological list of messages for one device.
type Session []Message

// Validate rejects foreign-shaped data: every message must be valid and ids unique.
func (s Session) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, m := range s {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("message %d: duplicate id %s", i, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// Index returns the position of the message with the given id, or -1.
func (s Session) Index(id string) int {
	for i := range s {
		if s[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies the session.
func (s Session) Clone() Session {
	if s == nil {
		return nil
	}
	out := make(Session, len(s))
	for i, m := range s {
		out[i] = m.Clone()
	}
	return out
}
