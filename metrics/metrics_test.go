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

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/vsdb-go/metrics"
)

func TestNilCollectorIsANoOp(t *testing.T) {
	var c *metrics.Collector
	require.NotPanics(t, func() {
		c.ObserveGet(0.1)
		c.ObserveWrite(0.1)
		c.ObservePrune(0.1, 3)
		c.ObserveMerge(0.1)
		c.SetBranchCount(2)
		c.SetVersionCount(5)
	})
}

func TestCollectorRegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg, "vsdb_test")

	c.ObserveGet(0.05)
	c.ObservePrune(0.2, 4)
	c.SetBranchCount(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var sawPruned, sawBranches bool
	for _, fam := range families {
		switch fam.GetName() {
		case "vsdb_test_versioned_pruned_versions_total":
			sawPruned = true
			require.EqualValues(t, 4, sumCounters(fam))
		case "vsdb_test_versioned_branches":
			sawBranches = true
			require.EqualValues(t, 3, fam.Metric[0].GetGauge().GetValue())
		}
	}
	require.True(t, sawPruned, "pruned_versions_total metric should be registered")
	require.True(t, sawBranches, "branches gauge should be registered")
}

func sumCounters(fam *dto.MetricFamily) float64 {
	var total float64
	for _, m := range fam.Metric {
		total += m.GetCounter().GetValue()
	}
	return total
}
