// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry collects per-run counters and writes them as a
// Prometheus textfile for node_exporter's textfile collector.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "augre"

// Metrics holds one run's collectors on a private registry.
//
// # Description
//
// A CLI run is short-lived, so nothing is served over HTTP. The registry
// is written to disk once at exit when --metrics-file is set. Metrics
// satisfies deps.Recorder and llm.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	// Labels: dependency, operation (ensure, remove), outcome
	dependencyOps *prometheus.CounterVec

	// Labels: dependency, operation
	dependencyDuration *prometheus.HistogramVec

	// Labels: ready (true, false)
	readinessAttempts *prometheus.CounterVec

	// Labels: kind (review, ask), outcome (ok, error)
	modelRequests *prometheus.CounterVec
}

// New creates an empty Metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		dependencyOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "operations_total",
			Help:      "Dependency ensure and remove operations by outcome",
		}, []string{"dependency", "operation", "outcome"}),
		dependencyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "operation_duration_seconds",
			Help:      "Time spent ensuring or removing a dependency",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"dependency", "operation"}),
		readinessAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readiness",
			Name:      "attempts_total",
			Help:      "Inference server readiness probes by result",
		}, []string{"ready"}),
		modelRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "requests_total",
			Help:      "Chat completion requests by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// ObserveDependency records one orchestrated operation.
func (m *Metrics) ObserveDependency(name, operation, outcome string, elapsed time.Duration) {
	m.dependencyOps.WithLabelValues(name, operation, outcome).Inc()
	m.dependencyDuration.WithLabelValues(name, operation).Observe(elapsed.Seconds())
}

// ObserveReadiness records one readiness probe.
func (m *Metrics) ObserveReadiness(ready bool) {
	m.readinessAttempts.WithLabelValues(strconv.FormatBool(ready)).Inc()
}

// ObserveModelRequest records one chat completion.
func (m *Metrics) ObserveModelRequest(kind, outcome string) {
	m.modelRequests.WithLabelValues(kind, outcome).Inc()
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes every collected metric to path in the text
// exposition format. The parent directory is created. The write goes
// through a temporary file so a scraper never sees a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
