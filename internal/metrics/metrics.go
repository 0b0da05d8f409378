// Package metrics holds the Prometheus collectors for the document lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docvault"

// Lifecycle counts upload, commit and cleanup events.
type Lifecycle struct {
	UploadsBegun          prometheus.Counter
	VersionsCommitted     prometheus.Counter
	CommitConflicts       prometheus.Counter
	PendingSwept          prometheus.Counter
	StorageDeleteFailures prometheus.Counter
}

// NewLifecycle creates the lifecycle counters and registers them with reg.
func NewLifecycle(reg prometheus.Registerer) (*Lifecycle, error) {
	m := &Lifecycle{
		UploadsBegun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_begun_total",
			Help:      "Write URLs issued for new documents or new versions.",
		}),
		VersionsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "versions_committed_total",
			Help:      "Document versions committed.",
		}),
		CommitConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_conflicts_total",
			Help:      "Version commits that hit a transaction conflict.",
		}),
		PendingSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_swept_total",
			Help:      "Abandoned pending documents removed by the sweeper.",
		}),
		StorageDeleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_delete_failures_total",
			Help:      "Object deletions that failed after the database rows were removed.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.UploadsBegun,
		m.VersionsCommitted,
		m.CommitConflicts,
		m.PendingSwept,
		m.StorageDeleteFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewNop returns counters that are not registered anywhere.
func NewNop() *Lifecycle {
	m, _ := NewLifecycle(prometheus.NewRegistry())
	return m
}
