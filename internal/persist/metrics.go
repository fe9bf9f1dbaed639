package persist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	savesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itinerary_editor",
			Subsystem: "persist",
			Name:      "saves_total",
			Help:      "Whole-document saves by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	saveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itinerary_editor",
			Subsystem: "persist",
			Name:      "save_duration_seconds",
			Help:      "Latency of whole-document saves.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	coalescedEditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "itinerary_editor",
			Subsystem: "persist",
			Name:      "coalesced_edits_total",
			Help:      "Debounced edits folded into a pending save.",
		},
	)

	staleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "itinerary_editor",
			Subsystem: "persist",
			Name:      "stale_responses_total",
			Help:      "Save responses not reconciled because the document changed meanwhile.",
		},
	)
)
