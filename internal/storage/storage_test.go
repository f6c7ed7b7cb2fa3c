package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"vesta/internal/metrics"
	"vesta/internal/storage"
	"vesta/internal/storage/memory"
	"vesta/internal/storage/storagetest"
)

func TestSQLitePortContract(t *testing.T) {
	p, err := storage.NewSQLitePort(filepath.Join(t.TempDir(), "vesta.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLitePort() error = %v", err)
	}
	defer p.Close()
	storagetest.Run(t, p)
}

func TestSQLitePortSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vesta.db")
	ctx := context.Background()

	p, err := storage.NewSQLitePort(path, nil)
	if err != nil {
		t.Fatalf("NewSQLitePort() error = %v", err)
	}
	if err := p.Write(ctx, storage.KeyChallenges, []byte(`[1]`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	p.Close()

	p, err = storage.NewSQLitePort(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer p.Close()
	got, err := p.Read(ctx, storage.KeyChallenges)
	if err != nil || string(got) != `[1]` {
		t.Fatalf("Read() after reopen = %q, %v", got, err)
	}
}

func TestCachedContract(t *testing.T) {
	storagetest.Run(t, storage.NewCached(memory.New(), 8, time.Minute))
}

func TestCachedServesReadsFromCache(t *testing.T) {
	ctx := context.Background()
	backing := memory.New()
	c := storage.NewCached(backing, 8, time.Minute)

	if err := c.Write(ctx, storage.KeyBills, []byte(`[]`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	// Changes behind the decorator's back are not seen until the entry expires.
	_ = backing.Write(ctx, storage.KeyBills, []byte(`["stale"]`))
	got, err := c.Read(ctx, storage.KeyBills)
	if err != nil || string(got) != `[]` {
		t.Fatalf("Read() = %q, %v", got, err)
	}
	if st := c.Cache().Stats(); st.Hits != 1 {
		t.Fatalf("expected a cache hit, stats %+v", st)
	}
}

func TestCachedDoesNotCacheFailedWrites(t *testing.T) {
	ctx := context.Background()
	faulty := storagetest.NewFaulty(memory.New())
	c := storage.NewCached(faulty, 8, time.Minute)

	faulty.FailWrites(storage.KeyBills)
	if err := c.Write(ctx, storage.KeyBills, []byte(`[]`)); !errors.Is(err, storagetest.ErrInjected) {
		t.Fatalf("Write() error = %v, want injected", err)
	}
	if _, err := c.Read(ctx, storage.KeyBills); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Read() error = %v, want ErrNotFound", err)
	}
}

func TestInstrumentedCountsOperations(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	faulty := storagetest.NewFaulty(memory.New())
	p := storage.NewInstrumented(faulty, m)

	_, _ = p.Read(ctx, storage.KeyBills)
	_ = p.Write(ctx, storage.KeyBills, []byte(`[]`))
	faulty.FailWrites()
	_ = p.Write(ctx, storage.KeyBills, []byte(`[]`))
	_ = p.Remove(ctx, storage.KeyBills)

	if got := testutil.ToFloat64(m.StorageOps.WithLabelValues("read", storage.KeyBills, "absent")); got != 1 {
		t.Errorf("absent reads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StorageOps.WithLabelValues("write", storage.KeyBills, metrics.ResultOK)); got != 1 {
		t.Errorf("ok writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StorageOps.WithLabelValues("write", storage.KeyBills, metrics.ResultError)); got != 1 {
		t.Errorf("failed writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StorageOps.WithLabelValues("remove", storage.KeyBills, metrics.ResultError)); got != 1 {
		t.Errorf("failed removes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StorageBytes.WithLabelValues(storage.KeyBills)); got != 2 {
		t.Errorf("written bytes = %v, want 2", got)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vesta.db")
	for i := 0; i < 2; i++ {
		version, err := storage.RunMigrations(path)
		if err != nil {
			t.Fatalf("RunMigrations() run %d error = %v", i+1, err)
		}
		if version != 1 {
			t.Errorf("run %d: schema version = %d, want 1", i+1, version)
		}
	}
}
