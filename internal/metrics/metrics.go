// Package metrics holds the Prometheus collectors shared by the store,
// its storage ports and the celebration notifier.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vesta"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	StorageOps   *prometheus.CounterVec
	StorageBytes *prometheus.CounterVec
	Mutations    *prometheus.CounterVec
	Celebrations *prometheus.CounterVec
}

// New builds the collectors and registers them with reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StorageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Persistence port operations by op, key and result.",
		}, []string{"op", "key", "result"}),
		StorageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "written_bytes_total",
			Help:      "Bytes written through the persistence port by key.",
		}, []string{"key"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Household store mutations by operation and result.",
		}, []string{"operation", "result"}),
		Celebrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "celebrations_total",
			Help:      "Celebration events handled by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.StorageOps, m.StorageBytes, m.Mutations, m.Celebrations)
	}
	return m
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
