// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gossip implements the peer shell around a dag.Dag: the piece
// spec.md's OVERVIEW labels an "external collaborator" rather than core
// (peer-ID list, majority tracking, round scheduling, wire handoff).
// Grounded on original_source/src/dag_gossiper.rs's Gossiper (add_peer,
// send_new, next_round, handle_received_message), restructured in the
// teacher's idiom: an exported struct with an Options-style constructor,
// a luxfi/log.Logger seam, and errors returned rather than logged-in-Rust
// fashion wherever the caller can act on them.
package gossip

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/maqi/dag-gossip/config"
	"github.com/maqi/dag-gossip/dag"
)

// ErrNoPeers is returned by NextRound when the peer set is empty.
var ErrNoPeers = errors.New("gossip: no peers to gossip with")

// ErrMalformedPeerDAG wraps any failure to decode a peer's gossiped Dag,
// per spec §7's malformed-peer-dag row: the message is dropped rather
// than merged, and the caller decides what "surface to shell" means for
// its transport (log, penalize the sender, close the connection, ...).
var ErrMalformedPeerDAG = errors.New("gossip: malformed peer dag")

// Option configures a Peer at construction time.
type Option func(*Peer)

// WithLogger injects a structured logger. Defaults to log.NewNoOpLogger().
func WithLogger(l log.Logger) Option {
	return func(p *Peer) { p.log = l }
}

// WithRecorder injects a metrics recorder on the underlying Dag.
func WithRecorder(r dag.Recorder) Option {
	return func(p *Peer) { p.recorder = r }
}

// WithDeterministicSampling makes NextRound's peer selection reproducible,
// for tests and the CLI harness's seeded simulations.
func WithDeterministicSampling(seed int64) Option {
	return func(p *Peer) { p.sampler = newDeterministicPeerSampler(seed) }
}

// Peer wraps a Dag with the peer-set bookkeeping and round scheduling that
// spec.md treats as external to the DAG's own invariants.
type Peer struct {
	mu sync.Mutex

	ownID   ids.NodeID
	peerIDs []ids.NodeID
	dag     *dag.Dag

	sampler *peerSampler
	log     log.Logger

	recorder dag.Recorder
}

// New constructs a Peer with an empty peer set. The majority is computed
// at once over self alone, so it starts at 1 rather than dag.New's 0.
// Use AddPeer to populate the peer set.
func New(ownID ids.NodeID, opts ...Option) *Peer {
	p := &Peer{
		ownID:   ownID,
		sampler: newPeerSampler(),
		log:     log.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	dagOpts := []dag.Option{dag.WithLogger(p.log)}
	if p.recorder != nil {
		dagOpts = append(dagOpts, dag.WithRecorder(p.recorder))
	}
	p.dag = dag.New(ownID, dagOpts...)
	p.recalculateMajorityLocked()
	return p
}

// ID returns this peer's own identity.
func (p *Peer) ID() ids.NodeID { return p.ownID }

// Dag returns the peer's underlying Dag, for read access (metrics,
// diagnostics, tests). Callers must not call Extend/Merge directly on it
// from a second goroutine while a Peer method is in flight; go through
// the Peer's own methods instead.
func (p *Peer) Dag() *dag.Dag { return p.dag }

// AddPeer registers peer in the peer set and recalculates the majority
// threshold as ⌈(n+1)/2⌉ over n = 1 (self) + len(peerIDs), mirroring
// dag_gossiper.rs's add_peer. A peer already present is a no-op.
func (p *Peer) AddPeer(peer ids.NodeID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.peerIDs {
		if existing == peer {
			return
		}
	}
	p.peerIDs = append(p.peerIDs, peer)
	p.recalculateMajorityLocked()
}

// RemovePeer drops peer from the peer set and recalculates the majority
// threshold. A peer not present is a no-op. Per spec §9's note that
// majority only ever moves via set_majority, dropping a peer can only
// lower or hold the threshold steady — it never invalidates units already
// marked stable, since observer sets are monotone.
func (p *Peer) RemovePeer(peer ids.NodeID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, existing := range p.peerIDs {
		if existing == peer {
			p.peerIDs = append(p.peerIDs[:i], p.peerIDs[i+1:]...)
			p.recalculateMajorityLocked()
			return
		}
	}
}

func (p *Peer) recalculateMajorityLocked() {
	params := config.Parameters{PeerCount: len(p.peerIDs) + 1}
	p.dag.SetMajority(params.Majority())
}

// PeerCount returns the number of peers known, not including self.
func (p *Peer) PeerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.peerIDs)
}

// SendNew records payload as a locally observed event, per
// dag_gossiper.rs's send_new.
func (p *Peer) SendNew(payload []byte) {
	p.dag.Extend(payload, p.ownID)
}

// NextRound selects a peer uniformly at random from the peer set and
// returns its identity along with this peer's current Dag, canonically
// serialized. Mirrors dag_gossiper.rs's next_round.
func (p *Peer) NextRound() (ids.NodeID, []byte, error) {
	p.mu.Lock()
	if len(p.peerIDs) == 0 {
		p.mu.Unlock()
		return ids.NodeID{}, nil, ErrNoPeers
	}
	target := p.peerIDs[p.sampler.pick(len(p.peerIDs))]
	p.mu.Unlock()

	data, err := p.dag.MarshalCodec()
	if err != nil {
		return ids.NodeID{}, nil, fmt.Errorf("gossip: cannot serialize own dag: %w", err)
	}
	p.log.Debug("gossip round", "self", p.ownID, "target", target, "bytes", len(data))
	return target, data, nil
}

// HandleReceived decodes a wire message from peer and merges it into this
// peer's Dag. Mirrors dag_gossiper.rs's handle_received_message, except a
// malformed message is returned as an error instead of only being logged:
// per spec §7's malformed-peer-dag row, the caller decides whether that's
// fatal, a dropped message, or cause to quarantine the sender.
func (p *Peer) HandleReceived(peer ids.NodeID, data []byte) error {
	incoming, err := dag.UnmarshalCodec(data)
	if err != nil {
		p.log.Warn("dropping malformed dag from peer", "peer", peer, "err", err)
		return fmt.Errorf("%w: from %s: %s", ErrMalformedPeerDAG, peer, err)
	}
	p.log.Debug("merging dag from peer", "self", p.ownID, "peer", peer)
	p.dag.Merge(incoming)
	return nil
}
