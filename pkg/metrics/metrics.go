package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoleTransitions counts role changes by transition and outcome (success|rejected|error).
	RoleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterd_role_transitions_total",
			Help: "Total number of membership role transitions",
		},
		[]string{"from", "to", "result"},
	)

	// OwnershipTransfers counts ownership transfers by outcome.
	OwnershipTransfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterd_ownership_transfers_total",
			Help: "Total number of organization ownership transfers",
		},
		[]string{"result"},
	)

	// InviteEvents counts invite lifecycle events (created|accepted|revoked|rejected).
	InviteEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterd_invite_events_total",
			Help: "Total number of invite workflow events",
		},
		[]string{"event"},
	)

	// CascadeSize observes how many subordinate memberships a single cascade touched.
	CascadeSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rosterd_cascade_size",
			Help:    "Subordinate memberships repaired per cascading role change",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rosterd_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
