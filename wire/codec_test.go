// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalSetsCurrentVersion(t *testing.T) {
	doc := DagDoc{Majority: 3, Genesis: "00", Units: []UnitDoc{{Identifier: "00"}}}
	data, err := Default.Marshal(doc)
	require.NoError(t, err)

	out, err := Default.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, CurrentVersion, out.Version)
	require.Equal(t, uint8(3), out.Majority)
}

func TestUnmarshalSortsUnitsByIdentifier(t *testing.T) {
	doc := DagDoc{
		Genesis: "00",
		Units: []UnitDoc{
			{Identifier: "ff"},
			{Identifier: "00"},
			{Identifier: "7f"},
		},
	}
	data, err := Default.Marshal(doc)
	require.NoError(t, err)

	out, err := Default.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, []string{"00", "7f", "ff"}, []string{
		out.Units[0].Identifier, out.Units[1].Identifier, out.Units[2].Identifier,
	})
}

func TestUnmarshalRejectsMalformedJSON(t *testing.T) {
	_, err := Default.Unmarshal([]byte("{not json"))
	require.Error(t, err)
}

func TestUnmarshalRejectsUnsupportedVersion(t *testing.T) {
	_, err := Default.Unmarshal([]byte(`{"version":7,"genesis":"00","units":[]}`))
	require.Error(t, err)
}

func TestEncodeDecodeIDRoundTrips(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	s := EncodeID(raw)
	out, err := DecodeID(s)
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestSortStringsDoesNotMutateInput(t *testing.T) {
	in := []string{"c", "a", "b"}
	out := SortStrings(in)
	require.Equal(t, []string{"a", "b", "c"}, out)
	require.Equal(t, []string{"c", "a", "b"}, in, "input slice must not be mutated")
}
