// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simnode

import (
	"fmt"

	"github.com/luxfi/snowsim/claro"
	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
	"github.com/luxfi/snowsim/snowball"
)

// Kind tags a Node's behavior, giving the five behaviors of spec.md §4.4 a
// closed sum type dispatched with a switch rather than an interface{}
// hierarchy, per spec.md §9's "polymorphic node dispatch" design note.
type Kind uint8

const (
	KindSnowball Kind = iota
	KindClaro
	KindRandom
	KindInfantile
	KindOmniscientMaster
	KindOmniscientPuppet
)

func (k Kind) String() string {
	switch k {
	case KindSnowball:
		return "snowball"
	case KindClaro:
		return "claro"
	case KindRandom:
		return "random"
	case KindInfantile:
		return "infantile"
	case KindOmniscientMaster, KindOmniscientPuppet:
		return "omniscient"
	default:
		return "unknown"
	}
}

// Node is the tagged union of every behavior the simulation drives. Only
// the fields matching Kind are populated; the rest are nil/zero.
type Node struct {
	id   int
	kind Kind

	snowballSolver *snowball.Solver[NoTx]
	claroSolver    *claro.Solver[NoTx]
	nodeQuery      sampler.NodeQuery
	rng            sampler.Source

	// random/infantile
	opinion opinion.Opinion[NoTx]

	// omniscient master
	honestIDs []int
	puppetIDs []int

	// omniscient puppet
	master *Node
}

// ID returns the node's fixed index into the network state.
func (n *Node) ID() int { return n.id }

// Kind returns the node's behavior tag.
func (n *Node) Kind() Kind { return n.kind }

// NewSnowballNode builds an honest Snowball node.
func NewSnowballNode(id int, solver *snowball.Solver[NoTx], nq sampler.NodeQuery, rng sampler.Source) *Node {
	return &Node{id: id, kind: KindSnowball, snowballSolver: solver, nodeQuery: nq, rng: rng}
}

// NewClaroNode builds an honest Claro node.
func NewClaroNode(id int, solver *claro.Solver[NoTx], nq sampler.NodeQuery, rng sampler.Source) *Node {
	return &Node{id: id, kind: KindClaro, claroSolver: solver, nodeQuery: nq, rng: rng}
}

// NewRandomNode builds a node that publishes a fresh coin flip every step
// and never decides.
func NewRandomNode(id int, rng sampler.Source, initial opinion.Opinion[NoTx]) *Node {
	return &Node{id: id, kind: KindRandom, rng: rng, opinion: initial}
}

// NewInfantileNode builds a contrarian node that samples the network and
// publishes the opposite of what it sees.
func NewInfantileNode(id int, nq sampler.NodeQuery, rng sampler.Source, initial opinion.Opinion[NoTx]) *Node {
	return &Node{id: id, kind: KindInfantile, nodeQuery: nq, rng: rng, opinion: initial}
}

// NewMasterOmniscientNode builds the sole decision-maker of the omniscient
// adversary, which inspects honestIDs and writes puppetIDs' slots.
func NewMasterOmniscientNode(id int, honestIDs, puppetIDs []int) *Node {
	return &Node{id: id, kind: KindOmniscientMaster, honestIDs: honestIDs, puppetIDs: puppetIDs}
}

// NewOmniscientPuppetNode builds a zero-work shell whose published vote
// mirrors whatever the master last chose for it.
func NewOmniscientPuppetNode(id int, master *Node) *Node {
	return &Node{id: id, kind: KindOmniscientPuppet, master: master}
}

// Step advances the node by one simulation step, sampling ns for peer
// votes, and reports the vote it would publish. It does NOT write to ns
// itself (except for the master, which is the one behavior whose "step"
// is defined as writing into other nodes' slots) — this lets callers
// batch writes for the sync/async disciplines' read-then-apply phases,
// while Glauber/layered simply apply the returned write immediately
// (spec.md §4.5, §5). write is false when the node has nothing new to
// publish this iteration (Decided solver, or a puppet/master with no own
// slot update).
func (n *Node) Step(ns *NetworkState) (vote opinion.Vote[NoTx], write bool) {
	switch n.kind {
	case KindSnowball:
		if n.snowballSolver.Decision().Final {
			return opinion.Vote[NoTx]{}, false
		}
		votes := ns.SampleVotes(n.snowballSolver.NodeQuery(), n.rng)
		n.snowballSolver.Step(votes)
		return n.snowballSolver.Vote()

	case KindClaro:
		if n.claroSolver.Decision().Final {
			return opinion.Vote[NoTx]{}, false
		}
		votes := ns.SampleVotes(n.claroSolver.NodeQuery(), n.rng)
		n.claroSolver.Step(NoTx{}, votes)
		return n.claroSolver.Vote()

	case KindRandom:
		n.opinion = opinion.Opinion[NoTx]{Tag: randomTag(n.rng)}
		return opinion.ToVote(n.opinion)

	case KindInfantile:
		votes := ns.SampleVotes(n.nodeQuery, n.rng)
		var yes, no int
		for _, v := range votes {
			if v.Yes {
				yes++
			} else {
				no++
			}
		}
		majorityYes := yes > no // ties and empty samples favor Yes, spec.md §4.4
		if majorityYes {
			n.opinion = opinion.Opinion[NoTx]{Tag: opinion.No}
		} else {
			n.opinion = opinion.Opinion[NoTx]{Tag: opinion.Yes}
		}
		return opinion.ToVote(n.opinion)

	case KindOmniscientMaster:
		n.stepMaster(ns)
		return opinion.Vote[NoTx]{}, false

	default: // KindOmniscientPuppet: the master already wrote this slot.
		return opinion.Vote[NoTx]{}, false
	}
}

// stepMaster inspects the current votes of honest nodes only, picks the
// minority polarity (ties favor Yes, matching Infantile's convention
// absent any spec.md tie-break for the master), and writes it into every
// puppet slot.
func (n *Node) stepMaster(ns *NetworkState) {
	var yes, no int
	for _, id := range n.honestIDs {
		if v, ok := ns.Get(id); ok {
			if v.Yes {
				yes++
			} else {
				no++
			}
		}
	}
	minorityYes := no >= yes
	vote := opinion.Vote[NoTx]{Yes: minorityYes}
	for _, id := range n.puppetIDs {
		ns.Set(id, vote)
	}
	n.opinion = opinion.ToOpinion(vote)
}

func randomTag(src sampler.Source) opinion.Tag {
	if src.Uint64()%2 == 0 {
		return opinion.Yes
	}
	return opinion.No
}

// Decision returns the node's current decision. Random/Infantile/master/
// puppet nodes never decide and always report Undecided.
func (n *Node) Decision() opinion.Decision[NoTx] {
	switch n.kind {
	case KindSnowball:
		return n.snowballSolver.Decision()
	case KindClaro:
		return n.claroSolver.Decision()
	case KindOmniscientPuppet:
		return opinion.Undecided(n.master.opinion)
	default:
		return opinion.Undecided(n.opinion)
	}
}

// Opinion returns the node's current internal opinion.
func (n *Node) Opinion() opinion.Opinion[NoTx] { return n.Decision().Opinion }

// Vote derives the node's published vote from its current opinion.
func (n *Node) Vote() (opinion.Vote[NoTx], bool) { return n.Decision().Vote() }

// StateRecord returns the structured per-node state spec.md §6 requires
// in the output record: Claro's three counters, Snowball's streak, or nil
// for the other three behaviors.
func (n *Node) StateRecord() any {
	switch n.kind {
	case KindSnowball:
		return map[string]uint64{"consecutive_success": n.snowballSolver.ConsecutiveSuccess()}
	case KindClaro:
		st := n.claroSolver.State()
		return map[string]uint64{
			"evidence":             st.Evidence,
			"evidence_accumulated": st.EvidenceAccumulated,
			"confidence":           st.Confidence,
		}
	default:
		return nil
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(id=%d, kind=%s, %s)", n.id, n.kind, n.Decision())
}
