package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons for PartnersDropped.
const (
	DropNoMessage     = "no_message"
	DropLookupFailed  = "lookup_failed"
	DropDirectoryFail = "directory_failed"
)

var (
	PartnersDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "inbox",
			Name:      "partners_dropped_total",
			Help:      "Conversation partners left out of a list response",
		},
		[]string{"reason"},
	)

	BulkUnderfetch = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "inbox",
			Name:      "bulk_underfetch_partners_total",
			Help:      "Partners missing from the bulk latest-message window and resolved one by one",
		},
	)

	ListDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "inbox",
			Name:      "list_duration_seconds",
			Help:      "Conversation list assembly duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"strategy"},
	)

	ListPartners = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "inbox",
			Name:      "list_partners",
			Help:      "Distinct partners discovered per conversation list request",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
