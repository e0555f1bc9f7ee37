// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire provides the deterministic, canonical, reversible encoding
// spec.md §6 requires of the Dag and its Units. Grounded on the teacher's
// codec/codec.go (a versioned JSONCodec); the canonical form is achieved by
// sorting every set-typed field before marshaling rather than by the
// teacher's "leave set order unspecified" approach, which would not
// round-trip deterministically for this spec's content-addressing needs.
package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Version identifies the wire encoding's shape, mirroring the teacher's
// CodecVersion idiom (codec/codec.go).
type Version uint16

// CurrentVersion is the only version this package currently emits or
// accepts.
const CurrentVersion Version = 0

// UnitDoc is the canonical, string-keyed wire form of a unit.Unit.
// Identifiers are hex-encoded so the document round-trips through JSON
// (and through any human-readable transport) without ambiguity.
type UnitDoc struct {
	Identifier string   `json:"identifier"`
	Parent     string   `json:"parent"`
	Payload    []byte   `json:"payload"`
	Observers  []string `json:"observers"`
	Children   []string `json:"children"`
}

// DagDoc is the canonical wire form of a Dag: a version tag, the majority
// threshold, the genesis identifier, and every unit sorted by identifier so
// that two equal Dags always serialize to byte-identical documents.
type DagDoc struct {
	Version  Version   `json:"version"`
	Majority uint8     `json:"majority"`
	Genesis  string    `json:"genesis"`
	Units    []UnitDoc `json:"units"`
}

// Codec marshals/unmarshals DagDocs. It is the wire-package analogue of the
// teacher's codec.JSONCodec (codec/codec.go), versioned the same way.
type Codec struct{}

// Default is the package's shared Codec instance, mirroring the teacher's
// package-level `var Codec = &JSONCodec{}`.
var Default = &Codec{}

// Marshal encodes doc canonically: Units must already be sorted by
// Identifier, and each UnitDoc's Observers/Children must already be sorted,
// by the time Marshal is called (dag.Dag.ToDoc guarantees this). Marshal
// itself only fixes the codec version and defers to encoding/json, whose
// struct-field and slice order is already deterministic.
func (c *Codec) Marshal(doc DagDoc) ([]byte, error) {
	doc.Version = CurrentVersion
	return json.Marshal(doc)
}

// Unmarshal decodes bytes into a DagDoc, rejecting any version this package
// does not understand.
func (c *Codec) Unmarshal(data []byte) (DagDoc, error) {
	var doc DagDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return DagDoc{}, fmt.Errorf("wire: malformed dag document: %w", err)
	}
	if doc.Version != CurrentVersion {
		return DagDoc{}, fmt.Errorf("wire: unsupported codec version %d", doc.Version)
	}
	sort.Slice(doc.Units, func(i, j int) bool { return doc.Units[i].Identifier < doc.Units[j].Identifier })
	return doc, nil
}

// EncodeID hex-encodes a fixed-width identifier for inclusion in a
// UnitDoc/DagDoc.
func EncodeID(b []byte) string { return hex.EncodeToString(b) }

// DecodeID reverses EncodeID.
func DecodeID(s string) ([]byte, error) { return hex.DecodeString(s) }

// SortStrings returns a sorted copy of ss, used to canonicalize
// UnitDoc.Observers/Children before marshaling.
func SortStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
