// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package dag

import (
	"fmt"
	"sort"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/maqi/dag-gossip/internal/set"
	"github.com/maqi/dag-gossip/unit"
	"github.com/maqi/dag-gossip/wire"
)

// ToDoc exports a canonical snapshot of d as a wire.DagDoc: units sorted by
// identifier, each unit's observer/child sets sorted by their hex form.
// Per spec §6, "deserialization followed by serialization is the identity
// on any valid DAG" — FromDoc(d.ToDoc()) reproduces d exactly.
func (d *Dag) ToDoc() wire.DagDoc {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc := wire.DagDoc{
		Majority: d.majority,
		Genesis:  wire.EncodeID(d.genesisID[:]),
		Units:    make([]wire.UnitDoc, 0, len(d.units)),
	}
	for _, u := range d.units {
		doc.Units = append(doc.Units, unitToDoc(u))
	}
	sort.Slice(doc.Units, func(i, j int) bool { return doc.Units[i].Identifier < doc.Units[j].Identifier })
	return doc
}

func unitToDoc(u *unit.Unit) wire.UnitDoc {
	id := u.Identifier()
	parent := u.Parent()

	observerStrs := make([]string, 0, u.Observers().Len())
	for _, o := range u.Observers().List() {
		observerStrs = append(observerStrs, wire.EncodeID(o[:]))
	}
	childStrs := make([]string, 0, u.Children().Len())
	for _, c := range u.Children().List() {
		childStrs = append(childStrs, wire.EncodeID(c[:]))
	}

	return wire.UnitDoc{
		Identifier: wire.EncodeID(id[:]),
		Parent:     wire.EncodeID(parent[:]),
		Payload:    append([]byte(nil), u.Payload()...),
		Observers:  wire.SortStrings(observerStrs),
		Children:   wire.SortStrings(childStrs),
	}
}

// FromDoc rebuilds a Dag from a wire.DagDoc previously produced by ToDoc
// (its own, or a peer's after wire.Default.Unmarshal). The logger and
// recorder are not part of the wire form; FromDoc defaults them to no-ops
// and applies opts (WithLogger, WithRecorder) to the rebuilt Dag.
func FromDoc(doc wire.DagDoc, opts ...Option) (*Dag, error) {
	if len(doc.Units) == 0 {
		return nil, fmt.Errorf("wire: dag document has no units")
	}

	genesisID, err := decodeID(doc.Genesis)
	if err != nil {
		return nil, fmt.Errorf("wire: bad genesis identifier: %w", err)
	}

	units := make(map[ids.ID]*unit.Unit, len(doc.Units))
	haveGenesis := false
	for _, ud := range doc.Units {
		u, err := unitFromDoc(ud)
		if err != nil {
			return nil, err
		}
		units[u.Identifier()] = u
		if u.Identifier() == genesisID {
			haveGenesis = true
		}
	}
	if !haveGenesis {
		return nil, fmt.Errorf("wire: genesis %s missing from unit set", doc.Genesis)
	}

	// Invariant 2 (closed parent links): every non-genesis unit's parent
	// must be present. A malformed peer DAG fails here rather than being
	// merged (spec §4.2's Failure semantics: "peer shell is expected to
	// reject deserialization failures before calling merge").
	for _, u := range units {
		if u.Identifier() == genesisID {
			continue
		}
		if _, ok := units[u.Parent()]; !ok {
			return nil, fmt.Errorf("wire: unit %s has dangling parent %s", u.Identifier(), u.Parent())
		}
	}

	d := &Dag{
		units:     units,
		genesisID: genesisID,
		majority:  doc.Majority,
		log:       log.NewNoOpLogger(),
		metrics:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func unitFromDoc(ud wire.UnitDoc) (*unit.Unit, error) {
	id, err := decodeID(ud.Identifier)
	if err != nil {
		return nil, fmt.Errorf("wire: bad unit identifier %q: %w", ud.Identifier, err)
	}
	parent, err := decodeID(ud.Parent)
	if err != nil {
		return nil, fmt.Errorf("wire: bad parent identifier %q: %w", ud.Parent, err)
	}

	observers := set.New[ids.NodeID](len(ud.Observers))
	for _, s := range ud.Observers {
		raw, err := wire.DecodeID(s)
		if err != nil {
			return nil, fmt.Errorf("wire: bad observer %q: %w", s, err)
		}
		nodeID, err := ids.ToNodeID(raw)
		if err != nil {
			return nil, fmt.Errorf("wire: bad observer %q: %w", s, err)
		}
		observers.Add(nodeID)
	}

	children := set.New[ids.ID](len(ud.Children))
	for _, s := range ud.Children {
		childID, err := decodeID(s)
		if err != nil {
			return nil, fmt.Errorf("wire: bad child %q: %w", s, err)
		}
		children.Add(childID)
	}

	return unit.Reconstruct(id, parent, ud.Payload, observers, children), nil
}

func decodeID(s string) (ids.ID, error) {
	raw, err := wire.DecodeID(s)
	if err != nil {
		return ids.ID{}, err
	}
	return ids.ToID(raw)
}

// MarshalCodec serializes d through wire.Default, the deterministic
// canonical form spec.md §6 requires.
func (d *Dag) MarshalCodec() ([]byte, error) {
	return wire.Default.Marshal(d.ToDoc())
}

// UnmarshalCodec deserializes bytes previously produced by MarshalCodec
// (by this peer or another) into a new Dag. Returns an error — never a
// panic — on malformed input, per spec §7's malformed-peer-dag row: the
// peer shell is expected to drop the message rather than call Merge.
func UnmarshalCodec(data []byte, opts ...Option) (*Dag, error) {
	doc, err := wire.Default.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return FromDoc(doc, opts...)
}
