// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import "math/rand"

// peerSampler picks one index out of n uniformly at random. Adapted from
// the teacher's utils/sampler.uniform (utils/sampler/uniform.go): that
// package is part of the teacher's own module rather than a standalone
// importable dependency, so its math/rand idiom is reproduced here instead
// of imported.
type peerSampler struct {
	rng *rand.Rand
}

// newPeerSampler seeds from the runtime, matching sampler.NewUniform.
func newPeerSampler() *peerSampler {
	return &peerSampler{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// newDeterministicPeerSampler seeds explicitly, matching
// sampler.NewDeterministicUniform — used by tests and the CLI harness that
// need reproducible round schedules.
func newDeterministicPeerSampler(seed int64) *peerSampler {
	return &peerSampler{rng: rand.New(rand.NewSource(seed))}
}

// pick returns a uniformly random index in [0, n). n must be > 0.
func (s *peerSampler) pick(n int) int {
	return s.rng.Intn(n)
}
