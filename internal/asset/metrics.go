// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package asset

import "github.com/prometheus/client_golang/prometheus"

// Result labels for Fetches.
const (
	ResultHit       = "hit"
	ResultFetched   = "fetched"
	ResultTimeout   = "timeout"
	ResultCancelled = "cancelled"
	ResultMissing   = "missing"
	ResultSkipped   = "skipped"
	ResultError     = "error"
)

// Fetches counts cache refreshes by result.
// Use RegisterMetrics to register this with a Prometheus registry.
var Fetches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nexus_sso_asset_fetches_total",
		Help: "Total number of profile asset refreshes by result",
	},
	[]string{"result"},
)

// RegisterMetrics registers asset metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Fetches)
}

func recordFetch(result string) {
	Fetches.WithLabelValues(result).Inc()
}
