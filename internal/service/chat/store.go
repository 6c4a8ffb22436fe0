package chat

import (
	"encoding/json"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/chat"
	"github.com/haiintel/dashboard/internal/storage"
)

// SessionStore mirrors a chat session to one key of a storage scope.
//
// Every method degrades silently: failures are logged as warnings and the in-memory
// session stays authoritative.
type SessionStore struct {
	storage storage.Storage
	key     string
	log     *logging.Logger
}

// NewSessionStore binds a store to a storage scope under chat.StorageKey.
func NewSessionStore(s storage.Storage, log *logging.Logger) *SessionStore {
	if log == nil {
		log = logging.Nop()
	}
	return &SessionStore{storage: s, key: chat.StorageKey, log: log.Sub("session-store")}
}

// Save serializes the full session and overwrites the stored value.
func (s *SessionStore) Save(session chat.Session) {
	if session == nil {
		session = chat.Session{}
	}
	data, err := json.Marshal(session)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed encoding chat session")
		return
	}
	if err := s.storage.SetItem(s.key, string(data)); err != nil {
		s.log.Warn().Err(err).Int("messages", len(session)).Msg("failed saving chat session")
	}
}

// Load returns the stored session. Missing, unreadable, unparseable or foreign-shaped data
// all yield ok=false.
func (s *SessionStore) Load() (chat.Session, bool) {
	raw, found, err := s.storage.GetItem(s.key)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed loading chat session")
		return nil, false
	}
	if !found || raw == "" {
		return nil, false
	}

	var session chat.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		s.log.Warn().Err(err).Msg("discarding unparseable chat session")
		return nil, false
	}
	if session == nil {
		return nil, false
	}
	if err := session.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("discarding malformed chat session")
		return nil, false
	}
	return session, true
}

// Clear removes the stored session. Clearing an empty store is a no-op.
func (s *SessionStore) Clear() {
	if err := s.storage.RemoveItem(s.key); err != nil {
		s.log.Warn().Err(err).Msg("failed clearing chat session")
	}
}
