// Package storage defines the durable key-value port the household store
// persists through, plus the SQLite implementation and port decorators.
package storage

import (
	"context"
	"errors"
)

// Persisted keys. Each holds one JSON document and is written independently.
const (
	KeyCurrentUser  = "current-user"
	KeyTransactions = "transactions"
	KeyBills        = "bills"
	KeyVisions      = "visions"
	KeyDesires      = "desires"
	KeyChallenges   = "challenges"
)

// ErrNotFound is returned by Read when a key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Port is a synchronous local byte store keyed by string.
type Port interface {
	// Read returns the bytes stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the bytes stored under key.
	Write(ctx context.Context, key string, data []byte) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Closer is implemented by ports holding resources.
type Closer interface {
	Close() error
}

// Keys returns every key the household store uses, session first.
func Keys() []string {
	return []string{KeyCurrentUser, KeyTransactions, KeyBills, KeyVisions, KeyDesires, KeyChallenges}
}

// Close closes p if it holds resources.
func Close(p Port) error {
	if c, ok := p.(Closer); ok {
		return c.Close()
	}
	return nil
}
