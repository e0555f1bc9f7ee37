// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the peer shell's tunable parameters: how many peers
// are in the set (which determines the majority-stability threshold) and
// how often a round of gossip fires. Grounded on the teacher's
// config.Config/config.Validator split (config/config.go, config/validator.go):
// a plain parameters struct plus a separate validator so callers can choose
// strictness.
package config

import (
	"fmt"
	"time"
)

// Parameters configures a single peer's view of the network.
type Parameters struct {
	// PeerCount is the number of peers in the gossip set, including self.
	PeerCount int

	// RoundInterval is the minimum spacing between gossip rounds.
	RoundInterval time.Duration
}

// DefaultParameters returns parameters suitable for a small local network
// or test harness.
func DefaultParameters() Parameters {
	return Parameters{
		PeerCount:     1,
		RoundInterval: 200 * time.Millisecond,
	}
}

// Majority computes ⌈(n+1)/2⌉ over n = PeerCount, the stability threshold
// spec.md §4.1 requires the peer shell to maintain. With PeerCount == 1 this
// returns 1: a lone peer's own observation is always a majority of one.
func (p Parameters) Majority() uint8 {
	n := p.PeerCount
	if n < 1 {
		n = 1
	}
	m := (n + 1 + 1) / 2 // ⌈(n+1)/2⌉
	if m > 255 {
		m = 255
	}
	return uint8(m)
}

// ValidationMode controls how strict Validate is, mirroring the teacher's
// config.ValidationMode (config/validator.go).
type ValidationMode int

const (
	// StrictMode rejects parameters that would work but are inadvisable.
	StrictMode ValidationMode = iota
	// SoftMode only rejects parameters the Dag's invariants cannot survive.
	SoftMode
)

// Validate checks p for internal consistency. In StrictMode it also flags
// configurations that are legal but likely mistakes (a round interval so
// short it would saturate a loopback network, or a peer count of zero).
func Validate(p Parameters, mode ValidationMode) error {
	if p.PeerCount < 0 {
		return fmt.Errorf("config: peer count must be >= 0, got %d", p.PeerCount)
	}
	if p.RoundInterval < 0 {
		return fmt.Errorf("config: round interval must be >= 0, got %s", p.RoundInterval)
	}
	if mode == SoftMode {
		return nil
	}
	if p.PeerCount == 0 {
		return fmt.Errorf("config: peer count is 0; a peer always counts itself, set PeerCount >= 1")
	}
	if p.RoundInterval > 0 && p.RoundInterval < time.Millisecond {
		return fmt.Errorf("config: round interval %s is below 1ms; rounds this fast will starve other goroutines", p.RoundInterval)
	}
	return nil
}
