// Package storage provides a key/value store shaped like the browser Web Storage API.
//
// A Storage is one scope (one browser profile, one terminal client). A Registry hands out
// scopes by identifier.
package storage

import "errors"

var (
	// ErrQuotaExceeded is returned by SetItem when the write would exceed the scope quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnavailable is returned by every call on a disabled storage.
	ErrUnavailable = errors.New("storage unavailable")
)

// Storage is a single storage scope.
type Storage interface {
	// GetItem returns the value stored under key and whether it exists.
	GetItem(key string) (string, bool, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
}

// Registry resolves storage scopes by identifier.
type Registry interface {
	Scope(id string) Storage
}

// Disabled is a Storage that refuses every operation, like a browser with storage turned off.
type Disabled struct{}

// GetItem implements Storage.
func (Disabled) GetItem(string) (string, bool, error) { return "", false, ErrUnavailable }

// SetItem implements Storage.
func (Disabled) SetItem(string, string) error { return ErrUnavailable }

// RemoveItem implements Storage.
func (Disabled) RemoveItem(string) error { return ErrUnavailable }
