// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package unit implements the vertex of the gossip DAG: an immutable
// identity (identifier, parent, payload) plus two grow-only sets
// (observers, children) that carry all the mutable state a unit ever
// accumulates.
//
// Grounded on original_source/src/unit.rs, adapted from Rust's BTreeSet
// union to the teacher's set.Set[T] CRDT idiom (luxfi-consensus/utils/set).
package unit

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/maqi/dag-gossip/internal/set"
)

// Sentinel is the fixed byte string used as both parent and payload of the
// genesis unit. Its digest, computed the same way as any other unit's
// identifier, is the genesis identifier and is therefore stable across
// every peer that implements this spec.
var Sentinel = []byte{0, 0, 0}

// Unit is a single observation of a single payload along one branch of the
// DAG. Identifier, Parent and Payload are fixed at construction; Observers
// and Children only ever grow.
type Unit struct {
	identifier ids.ID
	parent     ids.ID
	payload    []byte

	observers set.Set[ids.NodeID]
	children  set.Set[ids.ID]
}

// NewGenesis builds the unique genesis unit: sentinel parent, sentinel
// payload, and the supplied initial observer set (ordinarily just the
// local peer, per dag.New).
func NewGenesis(observers set.Set[ids.NodeID]) *Unit {
	id := computeIdentifier(Sentinel, Sentinel)
	return &Unit{
		identifier: id,
		parent:     ids.Empty, // sentinel: genesis has no parent, mirroring types.GenesisID = ids.Empty
		payload:    append([]byte(nil), Sentinel...),
		observers:  observers.Clone(),
		children:   set.New[ids.ID](0),
	}
}

// New builds a non-genesis unit extending parent with payload, witnessed so
// far by observers. Its identifier is the content-addressed digest of
// (parent.Payload(), payload), so any two peers constructing a unit with
// the same parent and payload independently arrive at the same identifier.
func New(parent *Unit, payload []byte, observers set.Set[ids.NodeID]) *Unit {
	return &Unit{
		identifier: computeIdentifier(parent.payload, payload),
		parent:     parent.identifier,
		payload:    append([]byte(nil), payload...),
		observers:  observers.Clone(),
		children:   set.New[ids.ID](0),
	}
}

// Reconstruct rebuilds a Unit from its wire-decoded parts, without
// recomputing or validating the content-address digest: the wire layer
// (wire.Codec, dag.FromDoc) is responsible for having decoded a
// previously-valid encoding. Used only by dag.FromDoc.
func Reconstruct(identifier, parent ids.ID, payload []byte, observers set.Set[ids.NodeID], children set.Set[ids.ID]) *Unit {
	return &Unit{
		identifier: identifier,
		parent:     parent,
		payload:    append([]byte(nil), payload...),
		observers:  observers,
		children:   children,
	}
}

// computeIdentifier mirrors the length-framed, sequential-write hashing
// idiom used by the teacher's dag/witness/cache.go `fold`: write each field
// preceded by its length, so that no two distinct (parentPayload, payload)
// pairs can collide on the framing alone.
func computeIdentifier(parentPayload, payload []byte) ids.ID {
	h := sha256.New()
	writeFramed(h, parentPayload)
	writeFramed(h, payload)
	sum := h.Sum(nil)
	id, _ := ids.ToID(sum)
	return id
}

func writeFramed(h interface{ Write([]byte) (int, error) }, b []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	_, _ = h.Write(lenBuf[:])
	_, _ = h.Write(b)
}

// Identifier returns the unit's content-addressed identifier.
func (u *Unit) Identifier() ids.ID { return u.identifier }

// Parent returns the identifier of the unit this one extends.
func (u *Unit) Parent() ids.ID { return u.parent }

// Payload returns the opaque event payload carried by this unit.
func (u *Unit) Payload() []byte { return u.payload }

// Observers returns the set of peers that have witnessed this unit. The
// returned set is the unit's own, not a copy: callers must not mutate it;
// use AddObserver/Union instead.
func (u *Unit) Observers() set.Set[ids.NodeID] { return u.observers }

// Children returns the unit's own (not copied) set of the identifiers that
// name this unit as parent. Per spec §3 invariant 3 and the design note in §9, this set is a
// conservative superset of actual children: it exists only to test
// childlessness in O(1), never to enumerate children authoritatively.
func (u *Unit) Children() set.Set[ids.ID] { return u.children }

// IsChildless reports whether this unit has no known children, i.e. is a
// tip eligible to be chosen as a best parent.
func (u *Unit) IsChildless() bool { return u.children.Len() == 0 }

// IsStable reports whether the unit has been observed by at least majority
// peers. With majority == 0 (fresh Dag, no peers yet configured) every unit
// is trivially stable; callers must not trust stability before SetMajority.
func (u *Unit) IsStable(majority uint8) bool {
	return uint(u.observers.Len()) >= uint(majority)
}

// Union merges other into u in place. Precondition: u.Identifier() ==
// other.Identifier() (same content address implies, modulo hash collision,
// the same parent and payload). Idempotent and commutative because
// Observers/Children are grow-only sets.
func (u *Unit) Union(other *Unit) {
	if u.identifier != other.identifier {
		panic(fmt.Sprintf("unit: union precondition violated: %s != %s", u.identifier, other.identifier))
	}
	u.observers.Union(other.observers)
	u.children.Union(other.children)
}

// AddChild records id as (possibly) a child of u.
func (u *Unit) AddChild(id ids.ID) {
	u.children.Add(id)
}

// AddObserver records peer as having witnessed u.
func (u *Unit) AddObserver(peer ids.NodeID) {
	u.observers.Add(peer)
}

// Clone returns a deep copy of u, safe to mutate independently.
func (u *Unit) Clone() *Unit {
	return &Unit{
		identifier: u.identifier,
		parent:     u.parent,
		payload:    append([]byte(nil), u.payload...),
		observers:  u.observers.Clone(),
		children:   u.children.Clone(),
	}
}

// String renders a short diagnostic form, in the spirit of unit.rs's Debug
// impl: a few identifier bytes, payload, and observer count rather than the
// full (frequently large) sets.
func (u *Unit) String() string {
	return fmt.Sprintf("unit{id: %s, parent: %s, payload: %x, observers: %d, children: %d}",
		shortID(u.identifier), shortID(u.parent), u.payload, u.observers.Len(), u.children.Len())
}

func shortID(id ids.ID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
