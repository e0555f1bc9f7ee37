// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dag implements the gossip-consensus DAG: a mapping from unit
// identifier to unit, rooted at a fixed genesis, supporting Extend (insert
// a locally observed event) and Merge (union with a peer's DAG).
//
// Grounded on luxfi-consensus/dag/dag.go's map-of-units shape and
// original_source/src/dag.rs's Extend/Merge/get_best_parent algorithms,
// generalized per spec.md §4.2 (path-aware observer collapsing on merge,
// deterministic lexicographic tie-break on best-parent selection).
package dag

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/maqi/dag-gossip/internal/set"
	"github.com/maqi/dag-gossip/unit"
)

// Recorder is the metrics seam consumed by Dag. It mirrors the teacher's
// interfaces.Registerer shape (poll/default.go) without requiring dag to
// import the concrete prometheus-backed metrics package: metrics.Registry
// satisfies this interface by structure, not by declared conformance.
type Recorder interface {
	ObserveExtend()
	ObserveMerge()
	SetUnitCount(n int)
	SetStableCount(n int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveExtend()       {}
func (noopRecorder) ObserveMerge()        {}
func (noopRecorder) SetUnitCount(int)     {}
func (noopRecorder) SetStableCount(int)   {}

// Option configures a Dag at construction time.
type Option func(*Dag)

// WithLogger injects a structured logger. Defaults to log.NewNoOpLogger().
func WithLogger(l log.Logger) Option {
	return func(d *Dag) { d.log = l }
}

// WithRecorder injects a metrics recorder. Defaults to a no-op.
func WithRecorder(r Recorder) Option {
	return func(d *Dag) { d.metrics = r }
}

// Dag is a single peer's local view of the gossip DAG. Every exported
// method that reads mutable state takes the Dag's mutex for its entire
// duration (GenesisID, which never changes after New, does not): per spec §5 the
// core is single-threaded with exclusive ownership per call, and the
// mutex is simply the mechanism that enforces that ownership when a host
// shares one Dag across goroutines.
type Dag struct {
	mu sync.RWMutex

	units     map[ids.ID]*unit.Unit
	genesisID ids.ID
	majority  uint8

	log     log.Logger
	metrics Recorder
}

// New builds a Dag containing only genesis, with genesis.observers =
// {ownID} and majority = 0. Callers must call SetMajority once the peer
// set is known; until then every unit is trivially "stable" (spec §9).
func New(ownID ids.NodeID, opts ...Option) *Dag {
	genesis := unit.NewGenesis(set.Of(ownID))
	d := &Dag{
		units:     map[ids.ID]*unit.Unit{genesis.Identifier(): genesis},
		genesisID: genesis.Identifier(),
		majority:  0,
		log:       log.NewNoOpLogger(),
		metrics:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetMajority updates the stability threshold. The peer shell calls this
// whenever the peer set changes, with majority = ⌈(n+1)/2⌉ over n peers
// including self (see config.Parameters.Majority).
func (d *Dag) SetMajority(majority uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.majority = majority
}

// Majority returns the current stability threshold.
func (d *Dag) Majority() uint8 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.majority
}

// GenesisID returns the identifier of the (unique, cross-peer-stable)
// genesis unit.
func (d *Dag) GenesisID() ids.ID {
	return d.genesisID // immutable after New; safe unlocked
}

// UnitCount returns the number of units currently known.
func (d *Dag) UnitCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.units)
}

// Unit returns a snapshot clone of the unit with the given identifier.
// The clone is safe to read without holding the Dag's lock, but mutating
// it has no effect on the Dag's state — use Extend/Merge for that.
func (d *Dag) Unit(id ids.ID) (*unit.Unit, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.units[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// Extend inserts a locally observed event. It selects a best parent under
// GetBestParent's deterministic tie-break, then either folds the
// observation into an existing unit on that parent's root path (if the
// payload already appears there) or creates a new unit extending it.
//
// Total over any well-formed Dag: panics only on invariant violation (spec
// §4.2, §7), never returns an error.
func (d *Dag) Extend(payload []byte, ownID ids.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bestID := d.bestParentLocked(ownID)
	best, ok := d.units[bestID]
	if !ok {
		panic(fmt.Sprintf("dag: invariant violation: best parent %s not present in mapping", bestID))
	}

	for _, u := range d.pathInclusiveLocked(bestID) {
		if bytes.Equal(u.Payload(), payload) {
			u.AddObserver(ownID)
			d.metrics.ObserveExtend()
			d.reportGaugesLocked()
			return
		}
	}

	next := unit.New(best, payload, set.Of(ownID))
	best.AddChild(next.Identifier())

	if existing, ok := d.units[next.Identifier()]; ok {
		// Defensive: another peer's gossip already produced the same
		// (parent, payload) pair, landing on the same content address.
		existing.Union(next)
	} else {
		d.units[next.Identifier()] = next
	}
	d.metrics.ObserveExtend()
	d.reportGaugesLocked()
}

// Merge unions other into d: for every unit in other, this Dag either
// unions it in place (already known), folds its observers into whichever
// local unit already occupies the same payload on the same root path
// (path-aware collapsing, spec §4.2 Case B), or inserts a clone (neither).
// A conservative child-set reconciliation pass follows, restoring
// invariant 3 without a quadratic re-scan.
//
// Merging a malformed peer Dag (one that itself violates spec §3's
// invariants) is undefined; callers must reject deserialization failures
// before calling Merge (see UnmarshalCodec).
func (d *Dag) Merge(other *Dag) {
	if d == other {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	for id, otherUnit := range other.units {
		if local, ok := d.units[id]; ok {
			local.Union(otherUnit)
			continue
		}
		if parent, ok := d.units[otherUnit.Parent()]; ok {
			if v := d.findPayloadOnPathLocked(parent.Identifier(), otherUnit.Payload()); v != nil {
				v.MergeObservers(otherUnit)
				continue
			}
		}
		d.units[id] = otherUnit.Clone()
	}

	// Child-set reconciliation: union each local unit's children with the
	// incoming children set, restricted to identifiers already known
	// locally. Conservative but O(|other.units| + Σ|children|); see §9.
	for id, otherUnit := range other.units {
		local, ok := d.units[id]
		if !ok {
			continue
		}
		for _, childID := range otherUnit.Children().List() {
			if _, known := d.units[childID]; known {
				local.AddChild(childID)
			}
		}
	}

	d.metrics.ObserveMerge()
	d.reportGaugesLocked()
}

// reportGaugesLocked pushes the current unit and stable-unit counts to the
// recorder. Called after Extend and Merge, the only mutators of d.units.
func (d *Dag) reportGaugesLocked() {
	stable := 0
	for _, u := range d.units {
		if u.IsStable(d.majority) {
			stable++
		}
	}
	d.metrics.SetUnitCount(len(d.units))
	d.metrics.SetStableCount(stable)
}

// GetBestParent deterministically selects a childless unit (a tip) under
// the ordered tie-break policy of spec §4.2. It is a pure function of
// (units, majority, ownID).
func (d *Dag) GetBestParent(ownID ids.NodeID) ids.ID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bestParentLocked(ownID)
}

func (d *Dag) bestParentLocked(ownID ids.NodeID) ids.ID {
	var candidates []*unit.Unit
	for _, u := range d.units {
		if u.IsChildless() {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		panic("dag: invariant violation: no childless unit in a non-empty dag")
	}
	if len(candidates) == 1 {
		return candidates[0].Identifier()
	}

	// Criterion 2: exactly one stable childless unit.
	var stableChildless []*unit.Unit
	for _, u := range candidates {
		if u.IsStable(d.majority) {
			stableChildless = append(stableChildless, u)
		}
	}
	if len(stableChildless) == 1 {
		return stableChildless[0].Identifier()
	}
	// Zero or more than one stable: keep all candidates (spec §4.2 criterion 2).

	// Criterion 3: maximal stable-prefix count.
	maxStable := -1
	stableCounts := make(map[ids.ID]int, len(candidates))
	for _, c := range candidates {
		sc := d.stablePrefixCountLocked(c.Parent())
		stableCounts[c.Identifier()] = sc
		if sc > maxStable {
			maxStable = sc
		}
	}
	survivors := candidates[:0:0]
	for _, c := range candidates {
		if stableCounts[c.Identifier()] == maxStable {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 1 {
		return survivors[0].Identifier()
	}

	// Criterion 4: exactly one survivor has ownID as an observer.
	var selfObserved []*unit.Unit
	for _, u := range survivors {
		if u.Observers().Contains(ownID) {
			selfObserved = append(selfObserved, u)
		}
	}
	if len(selfObserved) == 1 {
		return selfObserved[0].Identifier()
	}

	// Criterion 5: maximal observer count, computed over `survivors` (not
	// selfObserved) — criterion 4 only narrows the field when it alone
	// resolves the tie.
	maxObservers := -1
	for _, u := range survivors {
		if n := u.Observers().Len(); n > maxObservers {
			maxObservers = n
		}
	}
	var byObserverCount []*unit.Unit
	for _, u := range survivors {
		if u.Observers().Len() == maxObservers {
			byObserverCount = append(byObserverCount, u)
		}
	}
	if len(byObserverCount) == 1 {
		return byObserverCount[0].Identifier()
	}

	// Criterion 6: lexicographically greatest identifier, a pure,
	// deterministic total order (spec §9's resolution of the source's
	// ambiguous "pop last element" behavior).
	best := byObserverCount[0]
	for _, u := range byObserverCount[1:] {
		if compareID(u.Identifier(), best.Identifier()) > 0 {
			best = u
		}
	}
	return best.Identifier()
}

// stablePrefixCountLocked walks parent links starting at fromParent,
// counting stable units encountered, not including the childless
// candidate itself and not including genesis. Mirrors
// original_source/src/dag.rs's get_best_parent scoring loop exactly,
// including its choice to stop (without scoring) at genesis.
func (d *Dag) stablePrefixCountLocked(fromParent ids.ID) int {
	stableCount := 0
	cur := fromParent
	for hops := 0; hops <= len(d.units); hops++ {
		p, ok := d.units[cur]
		if !ok {
			panic(fmt.Sprintf("dag: invariant violation: dangling parent reference %s", cur))
		}
		if p.Identifier() == d.genesisID {
			return stableCount
		}
		if p.IsStable(d.majority) {
			stableCount++
		}
		cur = p.Parent()
	}
	panic("dag: invariant violation: cycle detected while scoring stable prefix")
}

// pathInclusiveLocked returns the units from start to genesis inclusive,
// following parent links. Panics if the walk exceeds |units| hops (cycle).
func (d *Dag) pathInclusiveLocked(start ids.ID) []*unit.Unit {
	path := make([]*unit.Unit, 0, 8)
	cur := start
	for hops := 0; hops <= len(d.units); hops++ {
		u, ok := d.units[cur]
		if !ok {
			panic(fmt.Sprintf("dag: invariant violation: dangling parent reference %s", cur))
		}
		path = append(path, u)
		if u.Identifier() == d.genesisID {
			return path
		}
		cur = u.Parent()
	}
	panic("dag: invariant violation: cycle detected while walking to genesis")
}

// findPayloadOnPathLocked returns the first unit with the given payload on
// the inclusive path from start to genesis, or nil.
func (d *Dag) findPayloadOnPathLocked(start ids.ID, payload []byte) *unit.Unit {
	for _, u := range d.pathInclusiveLocked(start) {
		if bytes.Equal(u.Payload(), payload) {
			return u
		}
	}
	return nil
}

func compareID(a, b ids.ID) int {
	return bytes.Compare(a[:], b[:])
}

// String renders a short diagnostic summary, in the spirit of dag.rs's
// Debug impl (which prints every unit; we print counts instead since
// real DAGs are far larger than the ones in the Rust test harness).
func (d *Dag) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	stable := 0
	for _, u := range d.units {
		if u.IsStable(d.majority) {
			stable++
		}
	}
	return fmt.Sprintf("dag{units: %d, stable: %d, majority: %d, genesis: %s}",
		len(d.units), stable, d.majority, d.genesisID)
}
