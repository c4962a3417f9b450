package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Trigger pipeline metrics
var (
	// EventsTotal tracks ingested trigger events by kind
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trigger_events_total",
			Help: "Total ingested trigger events by kind",
		},
		[]string{"kind"},
	)

	// EventsDroppedTotal tracks events dropped because the dispatch channel was full
	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trigger_events_dropped_total",
			Help: "Total trigger events dropped at ingestion",
		},
	)

	// SkipsTotal tracks eligibility rejections by reason
	SkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trigger_skips_total",
			Help: "Total eligibility rejections by reason",
		},
		[]string{"reason"},
	)
)

// Scheduler metrics
var (
	// PlaysTotal tracks started playbacks by layer
	PlaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_plays_total",
			Help: "Total playbacks started by layer",
		},
		[]string{"layer"},
	)

	// QueueDepth tracks the current play queue depth by layer
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduler_queue_depth",
			Help: "Current play queue depth by layer",
		},
		[]string{"layer"},
	)

	// ActiveAnimations tracks currently active playbacks by layer
	ActiveAnimations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduler_active_animations",
			Help: "Currently active playbacks by layer",
		},
		[]string{"layer"},
	)

	// DuplicatesDroppedTotal tracks requests de-duplicated on chat message id
	DuplicatesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_duplicates_dropped_total",
			Help: "Total requests dropped as chat-message duplicates",
		},
	)

	// SingleFlightDropsTotal tracks requests dropped by the per-command single-flight constraint
	SingleFlightDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_single_flight_drops_total",
			Help: "Total requests dropped because their command was already active",
		},
	)

	// SchedulerPanicsTotal tracks panics recovered in the playback loop
	SchedulerPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_panics_total",
			Help: "Total panics recovered in the playback loop",
		},
	)
)

// Overlay hub metrics
var (
	// OverlayClients tracks connected overlay websocket clients
	OverlayClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlay_connected_clients",
			Help: "Number of connected overlay websocket clients",
		},
	)

	// OverlaySlowClientsEvicted tracks clients disconnected for slow consumption
	OverlaySlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_slow_clients_evicted_total",
			Help: "Total overlay clients evicted for slow consumption",
		},
	)
)

// Persistence and platform metrics
var (
	// PersistFailuresTotal tracks failed document saves by feature area
	PersistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persist_failures_total",
			Help: "Total failed document saves by feature area",
		},
		[]string{"area"},
	)

	// FollowChecksTotal tracks platform follow checks by status
	FollowChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_follow_checks_total",
			Help: "Total platform follow checks by status",
		},
		[]string{"status"},
	)

	// CircuitBreakerState tracks the platform client breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// PubSubMessagesPublished tracks coordination messages published by channel
	PubSubMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_messages_published_total",
			Help: "Total coordination messages published by channel",
		},
		[]string{"channel"},
	)
)
