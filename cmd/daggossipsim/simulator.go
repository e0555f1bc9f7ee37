// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"math/rand"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/maqi/dag-gossip/gossip"
	dagmetrics "github.com/maqi/dag-gossip/metrics"
)

func runSimulator(cmd *cobra.Command, _ []string) error {
	nodeCount, _ := cmd.Flags().GetInt("nodes")
	eventCount, _ := cmd.Flags().GetInt("events")
	rounds, _ := cmd.Flags().GetInt("rounds")
	seed, _ := cmd.Flags().GetInt64("seed")
	withMetrics, _ := cmd.Flags().GetBool("metrics")

	if nodeCount < 1 {
		return fmt.Errorf("--nodes must be >= 1, got %d", nodeCount)
	}

	fmt.Printf("=== DAG gossip simulation ===\n")
	fmt.Printf("Peers: %d\n", nodeCount)
	fmt.Printf("Events per peer: up to %d\n", eventCount)
	fmt.Printf("Rounds: %d\n", rounds)
	fmt.Printf("\n")

	var reg *prometheus.Registry
	peers := make([]*gossip.Peer, nodeCount)
	for i := range peers {
		opts := []gossip.Option{gossip.WithDeterministicSampling(seed + int64(i))}
		if withMetrics {
			if reg == nil {
				reg = prometheus.NewRegistry()
			}
			rec, err := dagmetrics.New(reg, fmt.Sprintf("peer_%d", i))
			if err != nil {
				return fmt.Errorf("registering metrics for peer %d: %w", i, err)
			}
			opts = append(opts, gossip.WithRecorder(rec))
		}
		peers[i] = gossip.New(ids.GenerateTestNodeID(), opts...)
	}
	for i := 0; i < nodeCount; i++ {
		for j := i + 1; j < nodeCount; j++ {
			peers[i].AddPeer(peers[j].ID())
			peers[j].AddPeer(peers[i].ID())
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for i, p := range peers {
		n := rng.Intn(eventCount + 1)
		for e := 0; e < n; e++ {
			p.SendNew([]byte(fmt.Sprintf("peer-%d-event-%d", i, e)))
		}
	}

	for r := 0; r < rounds; r++ {
		type push struct {
			from int
			to   ids.NodeID
			data []byte
		}
		var pending []push
		for i, p := range peers {
			target, data, err := p.NextRound()
			if err == gossip.ErrNoPeers {
				continue
			}
			if err != nil {
				return fmt.Errorf("round %d, peer %d: %w", r, i, err)
			}
			pending = append(pending, push{from: i, to: target, data: data})
		}
		for _, ps := range pending {
			for _, q := range peers {
				if q.ID() == ps.to {
					if err := q.HandleReceived(peers[ps.from].ID(), ps.data); err != nil {
						fmt.Fprintf(cmd.OutOrStderr(), "round %d: %v\n", r, err)
					}
				}
			}
		}
	}

	fmt.Printf("=== Final state ===\n")
	for i, p := range peers {
		fmt.Printf("peer %d: units=%d majority=%d\n", i, p.Dag().UnitCount(), p.Dag().Majority())
	}

	if withMetrics && reg != nil {
		families, err := reg.Gather()
		if err != nil {
			return fmt.Errorf("gathering metrics: %w", err)
		}
		fmt.Printf("\n=== Metrics (%d families) ===\n", len(families))
		for _, fam := range families {
			fmt.Printf("%s: %d series\n", fam.GetName(), len(fam.GetMetric()))
		}
	}

	return nil
}
