// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the quizwire engine.
// No session_code or user_id labels: cardinality must stay bounded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters

	// SessionsCreated counts created sessions, by mode.
	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizwire_sessions_created_total",
		Help: "Total number of sessions created, by mode.",
	}, []string{"mode"})

	// ParticipantJoins counts successful participant joins and reconnects.
	ParticipantJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizwire_participant_joins_total",
		Help: "Total number of participant joins, including reconnects.",
	})

	// AnswersSubmitted counts processed answers, by outcome
	// (correct/incorrect/rejected).
	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizwire_answers_submitted_total",
		Help: "Total number of answer submissions, by outcome.",
	}, []string{"outcome"})

	// BroadcastsSent counts session broadcasts, by message type.
	BroadcastsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizwire_broadcasts_sent_total",
		Help: "Total number of session broadcasts, by message type.",
	}, []string{"type"})

	// StalledConnectionsDropped counts clients disconnected because a send
	// exceeded the write deadline.
	StalledConnectionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizwire_stalled_connections_dropped_total",
		Help: "Total number of connections dropped due to a stalled send.",
	})

	// StoreCASRetries counts optimistic lock conflicts on session mutations.
	StoreCASRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizwire_store_cas_retries_total",
		Help: "Total number of CAS retries on session state mutations.",
	})

	// Gauges

	// ActiveConnections tracks currently registered websocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quizwire_active_connections",
		Help: "Current number of registered websocket connections.",
	})
)

// Answer submission outcomes.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeRejected  = "rejected"
)
