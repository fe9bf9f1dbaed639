package editor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itinerary_editor",
			Subsystem: "session",
			Name:      "opened_total",
			Help:      "Sessions opened, by route kind and outcome.",
		},
		[]string{"route", "outcome"},
	)

	noticesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itinerary_editor",
			Subsystem: "session",
			Name:      "notices_total",
			Help:      "Notices shown to the user.",
		},
		[]string{"level", "kind"},
	)

	redirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itinerary_editor",
			Subsystem: "session",
			Name:      "redirects_total",
			Help:      "Navigations triggered by the session.",
		},
		[]string{"reason"},
	)
)
