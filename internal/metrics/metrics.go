package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollCyclesTotal tracks completed polling cycles by outcome
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memetrack_poll_cycles_total",
			Help: "The total number of monitor polling cycles",
		},
		[]string{"status"}, // success, failed
	)

	// PostsProcessed tracks the number of posts run through extraction
	PostsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memetrack_posts_processed_total",
		Help: "The total number of posts processed by the monitor",
	})

	// AccountFetchSeconds tracks time taken to fetch posts per account
	AccountFetchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memetrack_account_fetch_seconds",
		Help:    "Time taken to fetch recent posts for one account",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
	})

	// NameSightings tracks name alert aggregator decisions
	NameSightings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memetrack_name_sightings_total",
			Help: "The total number of token name sightings by outcome",
		},
		[]string{"outcome"}, // created, appended, duplicate
	)

	// CAAdmissions tracks contract alert admission gate decisions
	CAAdmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memetrack_ca_admissions_total",
			Help: "The total number of contract address admission decisions",
		},
		[]string{"outcome"}, // admitted, duplicate, stale
	)

	// FreshnessLookups tracks freshness oracle outcomes
	FreshnessLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memetrack_freshness_lookups_total",
			Help: "The total number of freshness oracle lookups",
		},
		[]string{"outcome"}, // fresh, stale, unknown, error
	)

	// BroadcastsSent tracks events fanned out to subscribers
	BroadcastsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memetrack_broadcasts_total",
			Help: "The total number of events broadcast to subscribers",
		},
		[]string{"type"},
	)

	// SubscribersActive tracks the number of live websocket subscribers
	SubscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memetrack_subscribers_active",
		Help: "The number of live broadcast subscribers",
	})

	// SubscribersDropped tracks subscribers evicted after failed delivery
	SubscribersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memetrack_subscribers_dropped_total",
		Help: "The total number of subscribers dropped after a failed delivery",
	})

	// VersionsCreated tracks snapshot versions created
	VersionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memetrack_versions_created_total",
		Help: "The total number of state versions created",
	})

	// VersionsRestored tracks restores performed
	VersionsRestored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memetrack_versions_restored_total",
		Help: "The total number of state versions restored",
	})

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memetrack_database_operations_total",
			Help: "The total number of database operations",
		},
		[]string{"operation", "status"},
	)
)

// RecordPollCycle records the outcome of one polling cycle
func RecordPollCycle(status string) {
	PollCyclesTotal.WithLabelValues(status).Inc()
}

// RecordNameSighting records a name aggregator decision
func RecordNameSighting(outcome string) {
	NameSightings.WithLabelValues(outcome).Inc()
}

// RecordCAAdmission records a contract admission gate decision
func RecordCAAdmission(outcome string) {
	CAAdmissions.WithLabelValues(outcome).Inc()
}

// RecordFreshnessLookup records a freshness oracle outcome
func RecordFreshnessLookup(outcome string) {
	FreshnessLookups.WithLabelValues(outcome).Inc()
}

// RecordBroadcast records one event fanned out to the live subscriber set
func RecordBroadcast(eventType string) {
	BroadcastsSent.WithLabelValues(eventType).Inc()
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}
