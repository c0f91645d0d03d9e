// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the control plane.
// No per-request identifiers in labels (cardinality discipline).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InstancesActive tracks instances currently loaded, by running state.
	InstancesActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "edgeai_instances_active",
		Help: "Current number of instances, by state (loaded/running).",
	}, []string{"state"})

	// InstanceCreateTotal counts create attempts by outcome.
	InstanceCreateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_instance_create_total",
		Help: "Total instance create attempts, by outcome.",
	}, []string{"outcome"})

	// AdmissionRejectTotal counts admission rejections.
	AdmissionRejectTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgeai_admission_reject_total",
		Help: "Total instance creations rejected by the global cap.",
	})

	// NodeBuildTotal counts node factory invocations by category and outcome
	// (built/skipped/failed).
	NodeBuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_node_build_total",
		Help: "Total node factory invocations, by category and outcome.",
	}, []string{"category", "outcome"})

	// PipelineRebuildTotal counts full graph rebuilds by trigger
	// (update/analytics/feature).
	PipelineRebuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_pipeline_rebuild_total",
		Help: "Total pipeline rebuilds, by trigger.",
	}, []string{"trigger"})

	// BrokerPublishTotal counts broker publishes by transport and outcome.
	BrokerPublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_broker_publish_total",
		Help: "Total broker publish attempts, by transport and outcome.",
	}, []string{"transport", "outcome"})

	// HTTPRequestsTotal counts HTTP requests by method and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_http_requests_total",
		Help: "Total HTTP requests, by method and status.",
	}, []string{"method", "status"})

	// HTTPRequestDuration observes handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edgeai_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds, by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// SetInstancesLoaded updates the loaded-instances gauge.
func SetInstancesLoaded(n float64) {
	InstancesActive.WithLabelValues("loaded").Set(n)
}

// SetInstancesRunning updates the running-instances gauge.
func SetInstancesRunning(n float64) {
	InstancesActive.WithLabelValues("running").Set(n)
}
