// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runner builds the node population from settings and drives the
// four scheduling disciplines of spec.md §4.5. Population construction is
// grounded on cmd/consensus/simulator.go's runSimulator (byzantine-percent
// split, per-node sampling) and supplemented, per SPEC_FULL.md §5, with
// the original source's id-shuffle-before-split and weighted
// initial-opinion-distribution construction.
package runner

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/luxfi/snowsim/claro"
	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
	"github.com/luxfi/snowsim/settings"
	"github.com/luxfi/snowsim/simnode"
	"github.com/luxfi/snowsim/snowball"
)

// buildPopulation constructs the node slice, initial network state, and
// optional master-omniscient node from settings. ids are shuffled before
// the honest/infantile/random/omniscient split so byzantine ids are not a
// contiguous low-index block (SPEC_FULL.md §5).
func buildPopulation(s *settings.SimulationSettings, seed int64) ([]*simnode.Node, *simnode.NetworkState, *simnode.Node, error) {
	total := s.ByzantineSettings.TotalSize
	if total <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: total_size must be positive, got %d", ErrEmptyPopulation, total)
	}

	popRand := rand.New(rand.NewSource(seed))

	ids := make([]int, total)
	for i := range ids {
		ids[i] = i
	}
	popRand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	dist := s.ByzantineSettings.Distribution
	honestSize := int(roundHalfAwayFromZero(float64(total) * dist.Honest))
	infantileSize := int(roundHalfAwayFromZero(float64(total) * dist.Infantile))
	randomSize := int(roundHalfAwayFromZero(float64(total) * dist.Random))
	omniscientSize := total - honestSize - infantileSize - randomSize
	if omniscientSize < 0 {
		omniscientSize = 0
	}

	honestIDs := ids[:honestSize]
	infantileIDs := ids[honestSize : honestSize+infantileSize]
	randomIDs := ids[honestSize+infantileSize : honestSize+infantileSize+randomSize]
	omniscientIDs := ids[honestSize+infantileSize+randomSize:]
	if len(omniscientIDs) > omniscientSize {
		omniscientIDs = omniscientIDs[:omniscientSize]
	}

	honestOpinions := buildHonestOpinions(s.Distribution, len(honestIDs), popRand)

	network := simnode.NewNetworkState(total)
	nodes := make([]*simnode.Node, 0, total)

	for i, id := range honestIDs {
		childSeed := popRand.Int63()
		rng := sampler.NewSource(childSeed)
		o := honestOpinions[i]
		node, err := newHonestNode(id, s.ConsensusSettings, o, rng)
		if err != nil {
			return nil, nil, nil, err
		}
		nodes = append(nodes, node)
		if v, ok := opinion.ToVote(o); ok {
			network.Set(id, v)
		}
	}

	for _, id := range infantileIDs {
		rng := sampler.NewSource(popRand.Int63())
		nq := sampler.NewNodeQuery(s.ConsensusSettings.SampleSize, id)
		nodes = append(nodes, simnode.NewInfantileNode(id, nq, rng, opinion.Opinion[simnode.NoTx]{Tag: opinion.None}))
	}

	for _, id := range randomIDs {
		rng := sampler.NewSource(popRand.Int63())
		nodes = append(nodes, simnode.NewRandomNode(id, rng, opinion.Opinion[simnode.NoTx]{Tag: opinion.None}))
	}

	var master *simnode.Node
	if len(omniscientIDs) > 0 {
		masterID := omniscientIDs[0]
		puppetIDs := omniscientIDs[1:]
		honestSnapshot := append([]int(nil), honestIDs...)
		master = simnode.NewMasterOmniscientNode(masterID, honestSnapshot, puppetIDs)
		nodes = append(nodes, master)
		for _, id := range puppetIDs {
			nodes = append(nodes, simnode.NewOmniscientPuppetNode(id, master))
		}
	}

	sortNodesByID(nodes)
	return nodes, network, master, nil
}

func newHonestNode(id int, cs settings.ConsensusSettings, initial opinion.Opinion[simnode.NoTx], rng sampler.Source) (*simnode.Node, error) {
	switch cs.Kind {
	case "snow_ball":
		cfg := snowball.Configuration{
			QuorumSize:        cs.QuorumSize,
			SampleSize:        cs.SampleSize,
			DecisionThreshold: cs.DecisionThreshold,
		}
		nq := sampler.NewNodeQuery(cs.SampleSize, id)
		solver := snowball.WithInitialOpinion(cfg, nq, initial)
		return simnode.NewSnowballNode(id, solver, nq, rng), nil

	case "claro":
		cfg := claro.Configuration{
			EvidenceAlpha:  cs.EvidenceAlpha,
			EvidenceAlpha2: cs.EvidenceAlpha2,
			ConfidenceBeta: cs.ConfidenceBeta,
			LookAhead:      cs.LookAhead,
			Query: claro.QueryConfiguration{
				QuerySize:        cs.Query.QuerySize,
				InitialQuerySize: cs.Query.InitialQuerySize,
				QueryMultiplier:  cs.Query.QueryMultiplier,
				MaxMultiplier:    cs.Query.MaxMultiplier,
			},
		}
		nq := sampler.NewNodeQuery(cs.Query.QuerySize, id)
		solver := claro.WithInitialOpinion(cfg, nq, initial)
		return simnode.NewClaroNode(id, solver, nq, rng), nil

	default:
		return nil, fmt.Errorf("runner: unknown consensus kind %q", cs.Kind)
	}
}

// buildHonestOpinions builds an initial-opinion vector for n honest nodes
// from dist.{Yes,No,None}, padding any remainder with None, then shuffles
// it independently of the id shuffle (SPEC_FULL.md §5).
func buildHonestOpinions(dist settings.Distribution, n int, popRand *rand.Rand) []opinion.Opinion[simnode.NoTx] {
	yesCount := int(roundHalfAwayFromZero(float64(n) * dist.Yes))
	noCount := int(roundHalfAwayFromZero(float64(n) * dist.No))
	if yesCount+noCount > n {
		noCount = n - yesCount
	}
	noneCount := n - yesCount - noCount

	out := make([]opinion.Opinion[simnode.NoTx], 0, n)
	for i := 0; i < yesCount; i++ {
		out = append(out, opinion.Opinion[simnode.NoTx]{Tag: opinion.Yes})
	}
	for i := 0; i < noCount; i++ {
		out = append(out, opinion.Opinion[simnode.NoTx]{Tag: opinion.No})
	}
	for i := 0; i < noneCount; i++ {
		out = append(out, opinion.Opinion[simnode.NoTx]{Tag: opinion.None})
	}
	popRand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func sortNodesByID(nodes []*simnode.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	frac := v - float64(int(v))
	if frac >= 0.5 {
		return float64(int(v)) + 1
	}
	return float64(int(v))
}
