// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package set provides a minimal grow-only set, the join-semilattice that
// backs Unit observer and child bookkeeping: union is the only mutator a
// consensus-critical set needs, so Remove/Pop are deliberately absent.
package set

import (
	"sort"

	"golang.org/x/exp/maps"
)

const minSetSize = 8

// Set is a set of comparable elements. The zero value is an empty, usable
// set.
type Set[T comparable] map[T]struct{}

// Of returns a Set initialized with elts.
func Of[T comparable](elts ...T) Set[T] {
	s := New[T](len(elts))
	s.Add(elts...)
	return s
}

// New returns a new set with initial capacity size.
func New[T comparable](size int) Set[T] {
	if size < 0 {
		size = 0
	}
	return make(map[T]struct{}, size)
}

func (s *Set[T]) resize(size int) {
	if *s == nil {
		if size < minSetSize {
			size = minSetSize
		}
		*s = make(map[T]struct{}, size)
	}
}

// Add inserts elts into the set. Already-present elements are a no-op.
func (s *Set[T]) Add(elts ...T) {
	s.resize(2 * len(elts))
	for _, elt := range elts {
		(*s)[elt] = struct{}{}
	}
}

// Union adds every element of other into s. This is the CRDT merge:
// commutative, associative, idempotent.
func (s *Set[T]) Union(other Set[T]) {
	s.resize(2 * other.Len())
	for elt := range other {
		(*s)[elt] = struct{}{}
	}
}

// Contains reports whether elt is in the set.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// List returns the set's elements in unspecified order.
func (s Set[T]) List() []T {
	return maps.Keys(s)
}

// SortedList returns the set's elements ordered by the supplied less
// function, for callers that need a deterministic traversal.
func (s Set[T]) SortedList(less func(a, b T) bool) []T {
	elts := s.List()
	sort.Slice(elts, func(i, j int) bool { return less(elts[i], elts[j]) })
	return elts
}

// Equals reports whether s and other contain the same elements.
func (s Set[T]) Equals(other Set[T]) bool {
	return maps.Equal(s, other)
}

// Clone returns an independent copy of s.
func (s Set[T]) Clone() Set[T] {
	out := New[T](s.Len())
	out.Union(s)
	return out
}
