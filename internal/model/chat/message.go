package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAI
}

// Message is one entry of a chat session.
//
// For ai messages FullText is the reply the reveal converges to and Text is always a prefix
// of it. Suggestions stays nil until the reply is fully revealed; an empty non-nil slice means
// the reply finished without follow-ups.
type Message struct {
	ID          string
	Role        Role
	Text        string
	FullText    string
	Suggestions []string
}

// Pending reports whether an ai message is still being revealed.
func (m Message) Pending() bool {
	return m.Role == RoleAI && m.Suggestions == nil
}

// Complete reports whether an ai message reached its terminal state.
func (m Message) Complete() bool {
	return m.Role == RoleAI && m.Suggestions != nil
}

// Clone returns a deep copy so callers can hand messages out without sharing slices.
func (m Message) Clone() Message {
	if m.Suggestions != nil {
		m.Suggestions = append([]string{}, m.Suggestions...)
	}
	return m
}

// wireMessage is the persisted/transport layout. A pointer keeps "absent" and "empty"
// suggestions apart after a round trip.
type wireMessage struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	FullText    string    `json:"fullText,omitempty"`
	Suggestions *[]string `json:"suggestions,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{ID: m.ID, Role: m.Role, Text: m.Text, FullText: m.FullText}
	if m.Suggestions != nil {
		s := m.Suggestions
		w.Suggestions = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message{ID: w.ID, Role: w.Role, Text: w.Text, FullText: w.FullText}
	if w.Suggestions != nil {
		m.Suggestions = *w.Suggestions
		if m.Suggestions == nil {
			m.Suggestions = []string{}
		}
	}
	return nil
}

// Validate checks the shape and the reveal invariant of a single message.
func (m Message) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("message id is required")
	}
	if !m.Role.Valid() {
		return fmt.Errorf("message %s: unknown role %q", m.ID, m.Role)
	}
	if m.Role == RoleUser {
		if m.FullText != "" || m.Suggestions != nil {
			return fmt.Errorf("message %s: user messages carry no reply fields", m.ID)
		}
		return nil
	}
	if m.FullText != "" && !strings.HasPrefix(m.FullText, m.Text) {
		return fmt.Errorf("message %s: text is not a prefix of fullText", m.ID)
	}
	if m.Suggestions != nil && m.FullText != "" && m.Text != m.FullText {
		return fmt.Errorf("message %s: suggestions set before the reply finished", m.ID)
	}
	return nil
}
