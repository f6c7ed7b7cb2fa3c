// Package session keeps the signed-in user and mirrors it to the
// current-user key of a storage.Port.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vesta/internal/core"
	"vesta/internal/log"
	"vesta/internal/storage"
)

type Store struct {
	port    storage.Port
	logger  *log.Logger
	current *core.User
}

// Open restores the persisted session. A missing, unreadable or malformed
// blob leaves the store signed out.
func Open(ctx context.Context, port storage.Port, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Store{port: port, logger: logger.WithComponent(log.ComponentSession)}

	data, err := port.Read(ctx, storage.KeyCurrentUser)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s
	case err != nil:
		s.logger.WarnContext(ctx, "Session unreadable, starting signed out", log.FieldError, err)
		return s
	}

	var u core.User
	if err := json.Unmarshal(data, &u); err != nil {
		s.logger.WarnContext(ctx, "Malformed session, starting signed out", log.FieldError, err)
		return s
	}
	if err := u.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Incomplete session, starting signed out", log.FieldError, err)
		return s
	}
	s.current = &u
	s.logger.InfoContext(ctx, "Session restored", log.FieldUserID, u.ID, log.FieldHouseholdID, u.FamilyID)
	return s
}

// Current returns the signed-in user, if any.
func (s *Store) Current() (core.User, bool) {
	if s.current == nil {
		return core.User{}, false
	}
	return *s.current, true
}

// HouseholdID returns the active household, or "" when signed out.
func (s *Store) HouseholdID() string {
	if s.current == nil {
		return ""
	}
	return s.current.FamilyID
}

// Set replaces the session and persists it. On write failure the previous
// session stays active.
func (s *Store) Set(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.port.Write(ctx, storage.KeyCurrentUser, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.current = &u
	return nil
}

// Clear signs out by removing the persisted key entirely.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.port.Remove(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	s.current = nil
	return nil
}

// Flush rewrites the current session, or removes the key when signed out.
func (s *Store) Flush(ctx context.Context) error {
	if s.current == nil {
		return s.port.Remove(ctx, storage.KeyCurrentUser)
	}
	data, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.port.Write(ctx, storage.KeyCurrentUser, data)
}
