// Copyright 2024 The vsdb-go Authors
// This file is part of vsdb-go.
//
// vsdb-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// vsdb-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with vsdb-go. If not, see <http://www.gnu.org/licenses/>.

// Package metrics carries the store's Prometheus instrumentation: counters
// for branch/version lifecycle events and latency histograms for the hot
// read/write/prune paths, mirroring the metric set erigon-lib exposes for
// its own kv layer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector bundles every metric vsdb-go exports. A nil *Collector is safe
// to call every method on (all are no-ops), so instrumentation stays
// optional for embedders that don't run a Prometheus registry.
type Collector struct {
	GetDuration    prometheus.Histogram
	WriteDuration  prometheus.Histogram
	PruneDuration  prometheus.Histogram
	MergeDuration  prometheus.Histogram
	BranchesGauge  prometheus.Gauge
	VersionsGauge  prometheus.Gauge
	PrunedVersions prometheus.Counter
}

// NewCollector builds and registers a Collector against reg. namespace
// prefixes every metric name (e.g. "vsdb") so multiple stores in one
// process don't collide.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	c := &Collector{
		GetDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "versioned",
			Name:      "get_duration_seconds",
			Help:      "Latency of GetByBranchVersion calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		WriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "versioned",
			Name:      "write_duration_seconds",
			Help:      "Latency of Insert/Remove calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		PruneDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "versioned",
			Name:      "prune_duration_seconds",
			Help:      "Latency of Prune calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "versioned",
			Name:      "merge_duration_seconds",
			Help:      "Latency of BranchMergeTo calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		BranchesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "versioned",
			Name:      "branches",
			Help:      "Number of live branches.",
		}),
		VersionsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "versioned",
			Name:      "versions",
			Help:      "Number of live (non-pruned) versions.",
		}),
		PrunedVersions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "versioned",
			Name:      "pruned_versions_total",
			Help:      "Total number of versions folded away by Prune.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			c.GetDuration, c.WriteDuration, c.PruneDuration, c.MergeDuration,
			c.BranchesGauge, c.VersionsGauge, c.PrunedVersions,
		)
	}
	return c
}

// ObserveGet records the duration of a completed read.
func (c *Collector) ObserveGet(seconds float64) {
	if c == nil {
		return
	}
	c.GetDuration.Observe(seconds)
}

// ObserveWrite records the duration of a completed Insert/Remove.
func (c *Collector) ObserveWrite(seconds float64) {
	if c == nil {
		return
	}
	c.WriteDuration.Observe(seconds)
}

// ObservePrune records the duration of a completed Prune and how many
// versions it reclaimed.
func (c *Collector) ObservePrune(seconds float64, reclaimed int) {
	if c == nil {
		return
	}
	c.PruneDuration.Observe(seconds)
	c.PrunedVersions.Add(float64(reclaimed))
}

// ObserveMerge records the duration of a completed BranchMergeTo.
func (c *Collector) ObserveMerge(seconds float64) {
	if c == nil {
		return
	}
	c.MergeDuration.Observe(seconds)
}

// SetBranchCount updates the live-branch gauge.
func (c *Collector) SetBranchCount(n int) {
	if c == nil {
		return
	}
	c.BranchesGauge.Set(float64(n))
}

// SetVersionCount updates the live-version gauge.
func (c *Collector) SetVersionCount(n int) {
	if c == nil {
		return
	}
	c.VersionsGauge.Set(float64(n))
}
