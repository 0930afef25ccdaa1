// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package simnode implements the node behaviors and shared network state
// described in spec.md §4.4/§3, grounded on cmd/consensus/simulator.go's
// nodeState{id,preference,confidence,byzantine} and sampleNodes/countVotes
// helpers, generalized from that file's ad-hoc loop into a reusable
// NetworkState type with the reader/writer discipline spec.md §5 requires.
package simnode

import (
	"sync"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
)

// NoTx is the unit transaction payload: consensus runs over the vote
// itself, not over any carried content (spec.md §3).
type NoTx struct{}

// slot is one entry of the shared vote vector: a vote plus a presence bit,
// mirroring Option<Vote> from the original source.
type slot struct {
	yes     bool
	present bool
}

// NetworkState is the shared vote vector of spec.md §3/§5: fixed length,
// shared by every node, with many-reader/single-writer access. Reads
// (sampling) take the read lock; writes (vote apply, modifiers) take the
// write lock. In a single-threaded runner the lock is uncontended and
// collapses to plain ownership, per spec.md §9.
type NetworkState struct {
	mu    sync.RWMutex
	slots []slot
}

// NewNetworkState allocates a network state of the given fixed size, with
// every entry initially absent.
func NewNetworkState(size int) *NetworkState {
	return &NetworkState{slots: make([]slot, size)}
}

// Len returns the fixed population size (spec.md §8 invariant 2).
func (ns *NetworkState) Len() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.slots)
}

// Nodes implements sampler.NodesSample: every index is a candidate id.
func (ns *NetworkState) Nodes() []int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	ids := make([]int, len(ns.slots))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// Weight implements sampler.NodesSample. The simulation driver has no
// stake concept of its own (spec.md's node behaviors are unweighted), so
// every id carries uniform weight; NodeQuery.Sample still performs a true
// weighted draw, which exercises the teacher's weighted-sampler machinery
// exactly as a uniform-stake deployment of it would.
func (ns *NetworkState) Weight(int) float64 { return 1.0 }

// Get returns the vote published at id, and whether it is present.
func (ns *NetworkState) Get(id int) (opinion.Vote[NoTx], bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	s := ns.slots[id]
	if !s.present {
		return opinion.Vote[NoTx]{}, false
	}
	return opinion.Vote[NoTx]{Yes: s.yes}, true
}

// Set publishes v at id.
func (ns *NetworkState) Set(id int, v opinion.Vote[NoTx]) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.slots[id] = slot{yes: v.Yes, present: true}
}

// SetAbsent clears id's published vote.
func (ns *NetworkState) SetAbsent(id int) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.slots[id] = slot{}
}

// SampleVotes draws up to nq.QuerySize peer ids (excluding nq.SelfID) by
// weight, and returns the present votes among them. Absent entries are
// dropped rather than padded, so the result may be shorter than
// QuerySize (spec.md §4.4 "sample ... for K present votes").
func (ns *NetworkState) SampleVotes(nq sampler.NodeQuery, src sampler.Source) []opinion.Vote[NoTx] {
	ids := nq.Sample(ns, src)

	ns.mu.RLock()
	defer ns.mu.RUnlock()
	votes := make([]opinion.Vote[NoTx], 0, len(ids))
	for _, id := range ids {
		if s := ns.slots[id]; s.present {
			votes = append(votes, opinion.Vote[NoTx]{Yes: s.yes})
		}
	}
	return votes
}

// DecidedFraction returns the count of Decided nodes over total, for the
// Converged ward and metrics reporting.
func DecidedFraction(nodes []*Node) (decided, total int) {
	total = len(nodes)
	for _, n := range nodes {
		if n.Decision().Final {
			decided++
		}
	}
	return decided, total
}

// VoteCounts returns (yesCount, noCount) across the current network state,
// for the Stabilised ward.
func (ns *NetworkState) VoteCounts() (yes, no int) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	for _, s := range ns.slots {
		if !s.present {
			continue
		}
		if s.yes {
			yes++
		} else {
			no++
		}
	}
	return yes, no
}

// ApplyRandomDrop clears every entry listed in idx (present or absent; the
// caller chooses which), acquiring the exclusive write lock for the whole
// operation (spec.md §4.6 "modifiers run under exclusive access"). idx
// must contain in-range indices.
func (ns *NetworkState) ApplyRandomDrop(idx []int) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, i := range idx {
		ns.slots[i] = slot{}
	}
}
