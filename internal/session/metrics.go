// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package session

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for LoginAttempts.
const (
	OutcomeCompleted = "completed"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
	OutcomeBusy      = "busy"
)

// LoginAttempts counts RequestLogin calls by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nexus_sso_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	},
	[]string{"outcome"},
)

// StateGauge holds the numeric session state (0 LoggedOut, 1 Authenticating,
// 2 Verifying, 3 Ready, 4 Failed).
// Use RegisterMetrics to register this with a Prometheus registry.
var StateGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "nexus_sso_session_state",
		Help: "Current session state",
	},
)

// RegisterMetrics registers session metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(StateGauge)
}

func recordLogin(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}
