// Package collection implements an ordered, write-through record sequence
// mirrored to a single key of a storage.Port.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"vesta/internal/log"
	"vesta/internal/storage"
)

// Collection holds records of one type in insertion order. Every successful
// change rewrites the whole sequence to its key; a failed write leaves the
// in-memory sequence as it was.
type Collection[T any] struct {
	key    string
	port   storage.Port
	logger *log.Logger
	items  []T
}

// Load restores the collection stored under key. Absent, unreadable or
// malformed data yields an empty collection.
func Load[T any](ctx context.Context, port storage.Port, key string, logger *log.Logger) *Collection[T] {
	if logger == nil {
		logger = log.Nop()
	}
	c := &Collection[T]{
		key:    key,
		port:   port,
		logger: logger.WithComponent(log.ComponentCollection).With(log.FieldKey, key),
		items:  []T{},
	}

	data, err := port.Read(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c
	case err != nil:
		c.logger.WarnContext(ctx, "Collection unreadable, starting empty", log.FieldError, err)
		return c
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.WarnContext(ctx, "Malformed collection, starting empty", log.FieldError, err)
		return c
	}
	if items != nil {
		c.items = items
	}
	c.logger.DebugContext(ctx, "Collection restored", log.FieldCount, len(c.items))
	return c
}

// Key returns the storage key backing the collection.
func (c *Collection[T]) Key() string { return c.key }

// All returns a copy of the records in insertion order.
func (c *Collection[T]) All() []T {
	return slices.Clone(c.items)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int { return len(c.items) }

// Find returns the first record matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	for _, it := range c.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Append adds rec at the end and persists the collection.
func (c *Collection[T]) Append(ctx context.Context, rec T) error {
	next := make([]T, len(c.items), len(c.items)+1)
	copy(next, c.items)
	next = append(next, rec)
	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.items = next
	return nil
}

// UpdateWhere replaces every record matching pred with fn(record) and
// persists the collection. It returns the number of records changed; when
// nothing matches nothing is written.
func (c *Collection[T]) UpdateWhere(ctx context.Context, pred func(T) bool, fn func(T) T) (int, error) {
	next := make([]T, len(c.items))
	n := 0
	for i, it := range c.items {
		if pred(it) {
			next[i] = fn(it)
			n++
			continue
		}
		next[i] = it
	}
	if n == 0 {
		return 0, nil
	}
	if err := c.persist(ctx, next); err != nil {
		return 0, err
	}
	c.items = next
	return n, nil
}

// Flush rewrites the current sequence.
func (c *Collection[T]) Flush(ctx context.Context) error {
	return c.persist(ctx, c.items)
}

func (c *Collection[T]) persist(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.port.Write(ctx, c.key, data); err != nil {
		c.logger.ErrorContext(ctx, "Collection write failed", log.FieldError, err)
		return fmt.Errorf("persist %s: %w", c.key, err)
	}
	return nil
}
