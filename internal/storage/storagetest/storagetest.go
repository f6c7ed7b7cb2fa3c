// Package storagetest provides a conformance suite for storage.Port
// implementations and a fault-injecting port for tests.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vesta/internal/storage"
)

// Run exercises the Port contract against p.
func Run(t *testing.T, p storage.Port) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		if _, err := p.Read(ctx, storage.KeyBills); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Read() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("write then read", func(t *testing.T) {
		if err := p.Write(ctx, storage.KeyTransactions, []byte(`[{"id":"a"}]`)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, err := p.Read(ctx, storage.KeyTransactions)
		if err != nil || string(got) != `[{"id":"a"}]` {
			t.Fatalf("Read() = %q, %v", got, err)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if err := p.Write(ctx, storage.KeyTransactions, []byte(`[]`)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, err := p.Read(ctx, storage.KeyTransactions)
		if err != nil || string(got) != `[]` {
			t.Fatalf("Read() = %q, %v", got, err)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		if err := p.Write(ctx, storage.KeyVisions, []byte(`["v"]`)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, _ := p.Read(ctx, storage.KeyTransactions)
		if string(got) != `[]` {
			t.Fatalf("transactions changed to %q", got)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := p.Write(ctx, storage.KeyCurrentUser, []byte(`{}`)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := p.Remove(ctx, storage.KeyCurrentUser); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if _, err := p.Read(ctx, storage.KeyCurrentUser); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Read() after Remove error = %v, want ErrNotFound", err)
		}
		if err := p.Remove(ctx, storage.KeyCurrentUser); err != nil {
			t.Fatalf("Remove() of absent key error = %v", err)
		}
	})
}

// ErrInjected is the error returned by a Faulty port when a fault fires.
var ErrInjected = errors.New("storagetest: injected write failure")

// Faulty wraps a port and fails writes or removes on demand.
type Faulty struct {
	storage.Port

	mu         sync.Mutex
	failWrites map[string]bool
	failAll    bool
	writes     int
}

func NewFaulty(p storage.Port) *Faulty {
	return &Faulty{Port: p, failWrites: map[string]bool{}}
}

// FailWrites makes writes and removes of the given keys fail; no keys means every key.
func (f *Faulty) FailWrites(keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(keys) == 0 {
		f.failAll = true
	}
	for _, k := range keys {
		f.failWrites[k] = true
	}
}

// Heal clears all injected faults.
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = false
	f.failWrites = map[string]bool{}
}

// Writes reports how many writes and removes reached the wrapped port.
func (f *Faulty) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *Faulty) fail(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failWrites[key] {
		return true
	}
	f.writes++
	return false
}

func (f *Faulty) Write(ctx context.Context, key string, data []byte) error {
	if f.fail(key) {
		return ErrInjected
	}
	return f.Port.Write(ctx, key, data)
}

func (f *Faulty) Remove(ctx context.Context, key string) error {
	if f.fail(key) {
		return ErrInjected
	}
	return f.Port.Remove(ctx, key)
}
