package storage

import (
	"context"
	"errors"

	"vesta/internal/metrics"
)

// Instrumented counts port operations in Prometheus.
type Instrumented struct {
	next    Port
	metrics *metrics.Metrics
}

func NewInstrumented(next Port, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (i *Instrumented) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := i.next.Read(ctx, key)
	result := metrics.Result(err)
	if errors.Is(err, ErrNotFound) {
		result = "absent"
	}
	i.metrics.StorageOps.WithLabelValues("read", key, result).Inc()
	return data, err
}

func (i *Instrumented) Write(ctx context.Context, key string, data []byte) error {
	err := i.next.Write(ctx, key, data)
	i.metrics.StorageOps.WithLabelValues("write", key, metrics.Result(err)).Inc()
	if err == nil {
		i.metrics.StorageBytes.WithLabelValues(key).Add(float64(len(data)))
	}
	return err
}

func (i *Instrumented) Remove(ctx context.Context, key string) error {
	err := i.next.Remove(ctx, key)
	i.metrics.StorageOps.WithLabelValues("remove", key, metrics.Result(err)).Inc()
	return err
}

func (i *Instrumented) Close() error {
	return Close(i.next)
}
