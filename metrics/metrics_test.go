// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg, "test")
	require.NoError(t, err)
	require.NotNil(t, r)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 4)
}

func TestObserveAndSet(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg, "test2")
	require.NoError(t, err)

	r.ObserveExtend()
	r.ObserveExtend()
	r.ObserveMerge()
	r.SetUnitCount(5)
	r.SetStableCount(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			var v float64
			if m.GetCounter() != nil {
				v = m.GetCounter().GetValue()
			} else if m.GetGauge() != nil {
				v = m.GetGauge().GetValue()
			}
			values[fam.GetName()] = v
		}
	}

	require.Equal(t, float64(2), values["test2_dag_extend_total"])
	require.Equal(t, float64(1), values["test2_dag_merge_total"])
	require.Equal(t, float64(5), values["test2_dag_unit_count"])
	require.Equal(t, float64(2), values["test2_dag_stable_unit_count"])
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "dup")
	require.NoError(t, err)
	_, err = New(reg, "dup")
	require.Error(t, err)
}
