// Package metrics holds the Prometheus collectors for pipes, widgets and
// the native connection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipe metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enaml",
			Subsystem: "pipe",
			Name:      "sent_total",
			Help:      "Total number of messages put on a pipe",
		},
		[]string{"transport", "message"},
	)

	MessagesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enaml",
			Subsystem: "pipe",
			Name:      "delivered_total",
			Help:      "Total number of messages handed to a pipe callback",
		},
		[]string{"transport"},
	)

	MessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enaml",
			Subsystem: "pipe",
			Name:      "dropped_total",
			Help:      "Total number of messages that could not be delivered",
		},
		[]string{"transport", "reason"},
	)

	MessagesBuffered = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "enaml",
			Subsystem: "pipe",
			Name:      "buffered",
			Help:      "Messages waiting for a callback or for delivery",
		},
		[]string{"transport"},
	)

	// Widget metrics
	MessagesUnhandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enaml",
			Subsystem: "widget",
			Name:      "unhandled_total",
			Help:      "Messages received by a widget with no handler",
		},
		[]string{"widget", "message"},
	)

	WidgetsLive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "enaml",
			Subsystem: "widget",
			Name:      "live",
			Help:      "Number of live client widgets",
		},
		[]string{"toolkit"},
	)

	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "enaml",
			Subsystem: "builder",
			Name:      "duration_seconds",
			Help:      "Time taken to build a client tree",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	// Native metrics
	NativeCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enaml",
			Subsystem: "native",
			Name:      "commands_total",
			Help:      "Commands sent to the native frontend",
		},
		[]string{"command"},
	)
)
