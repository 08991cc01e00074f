// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package helper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StatusSpawnFailed labels invocations whose process never started.
const StatusSpawnFailed = "spawn_failed"

// Invocations counts helper invocations by command and outcome status.
// Use RegisterMetrics to register this with a Prometheus registry.
var Invocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nexus_sso_helper_invocations_total",
		Help: "Total number of helper process invocations",
	},
	[]string{"command", "status"},
)

// InvocationDuration observes how long helper processes ran.
// Use RegisterMetrics to register this with a Prometheus registry.
var InvocationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "nexus_sso_helper_duration_seconds",
		Help:    "Helper process wall-clock duration in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
	[]string{"command"},
)

// RegisterMetrics registers helper metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Invocations)
	reg.MustRegister(InvocationDuration)
}

func recordInvocation(command, status string, d time.Duration) {
	Invocations.WithLabelValues(command, status).Inc()
	if d > 0 {
		InvocationDuration.WithLabelValues(command).Observe(d.Seconds())
	}
}
