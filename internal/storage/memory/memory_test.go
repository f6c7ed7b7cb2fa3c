package memory

import (
	"context"
	"testing"

	"vesta/internal/storage"
	"vesta/internal/storage/storagetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storagetest.Run(t, New())
}

func TestMemoryStoreCopiesBuffers(t *testing.T) {
	s := NewWith(map[string][]byte{storage.KeyBills: []byte(`[]`)})
	buf := []byte(`["x"]`)
	if err := s.Write(context.Background(), storage.KeyDesires, buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	buf[2] = 'y'
	got, _ := s.Read(context.Background(), storage.KeyDesires)
	if string(got) != `["x"]` {
		t.Fatalf("stored bytes aliased caller buffer: %q", got)
	}
	if keys := s.Keys(); len(keys) != 2 || keys[0] != storage.KeyBills {
		t.Fatalf("unexpected keys %v", keys)
	}
}
