// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package unit

// MergeObservers unions only other's observer set into u, leaving u's
// children untouched. Used by Dag.Merge's Case B (path-aware observer
// collapsing, spec §4.2): the incoming unit itself is never materialized,
// but whatever peers witnessed it must still be credited to the unit that
// already occupies that spot on the local path.
func (u *Unit) MergeObservers(other *Unit) {
	u.observers.Union(other.observers)
}
