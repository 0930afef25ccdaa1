// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package snowball implements the streak-threshold binary consensus solver
// described in spec.md §4.2, following the same "count agreement, bump or
// reset a streak counter, finalize past a threshold" shape as the teacher's
// consensus/focus.binaryQuantum (consensus/focus/binary_quantum.go), here
// specialized to a single quorum/beta pair as in
// original_source/consensus/snowball/src/snowball.rs.
package snowball

import (
	"fmt"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
)

// Configuration holds the tunable parameters of a Snowball instance.
type Configuration struct {
	QuorumSize       int
	SampleSize       int
	DecisionThreshold int
}

// Solver is a single node's Snowball state machine. It is not safe for
// concurrent use; the runner gives each node exclusive ownership of its
// solver during a step.
type Solver[Tx any] struct {
	configuration      Configuration
	decision           opinion.Decision[Tx]
	consecutiveSuccess uint64
	nodeQuery          sampler.NodeQuery
}

// New creates a solver with no initial opinion (opinion.None).
func New[Tx any](tx Tx, cfg Configuration, nq sampler.NodeQuery) *Solver[Tx] {
	return &Solver[Tx]{
		configuration: cfg,
		decision:      opinion.Undecided(opinion.Opinion[Tx]{Tag: opinion.None, Tx: tx}),
		nodeQuery:     nq,
	}
}

// WithInitialOpinion creates a solver with the given starting opinion.
func WithInitialOpinion[Tx any](cfg Configuration, nq sampler.NodeQuery, o opinion.Opinion[Tx]) *Solver[Tx] {
	return &Solver[Tx]{
		configuration: cfg,
		decision:      opinion.Undecided(o),
		nodeQuery:     nq,
	}
}

// countAgreeing counts votes whose polarity matches the solver's current
// vote. Opinion.None never agrees with anything (its "agreeing count" is
// zero), so the not-preference branch of Step fires and can move the
// opinion off None (spec.md §4.2, §9).
func (s *Solver[Tx]) countAgreeing(votes []opinion.Vote[Tx]) int {
	current, hasVote := s.Vote()
	if !hasVote {
		return 0
	}
	n := 0
	for _, v := range votes {
		if v.Yes == current.Yes {
			n++
		}
	}
	return n
}

// Step advances the solver given a sample of peer votes. Precondition: the
// current decision is Undecided; calling Step on a Decided solver panics,
// per spec.md §7's "runtime invariant, bug, fail-fast" taxonomy.
func (s *Solver[Tx]) Step(votes []opinion.Vote[Tx]) {
	if s.decision.Final {
		panic("snowball: Step called on a Decided solver")
	}

	agreeing := s.countAgreeing(votes)
	disagreeing := len(votes) - agreeing

	switch {
	case agreeing >= s.configuration.QuorumSize:
		s.consecutiveSuccess++
	case disagreeing >= s.configuration.QuorumSize && s.Opinion().Tag == opinion.None:
		// None has no polarity to flip: adopt the sample's majority side
		// (ties to Yes) if it reaches quorum on its own, else reset.
		yes := 0
		for _, v := range votes {
			if v.Yes {
				yes++
			}
		}
		majority := opinion.Vote[Tx]{Yes: yes >= len(votes)-yes, Tx: s.Opinion().Tx}
		s.consecutiveSuccess = 0
		if max(yes, len(votes)-yes) >= s.configuration.QuorumSize {
			s.decision = opinion.Undecided(opinion.ToOpinion(majority))
			s.consecutiveSuccess = 1
		}
	case disagreeing >= s.configuration.QuorumSize:
		s.decision = opinion.Undecided(s.Opinion().Flip())
		s.consecutiveSuccess = 1
	default:
		s.consecutiveSuccess = 0
	}

	if s.consecutiveSuccess > uint64(s.configuration.DecisionThreshold) {
		s.decision = opinion.Decided(s.Opinion())
	}
}

// ConsecutiveSuccess returns the current streak counter.
func (s *Solver[Tx]) ConsecutiveSuccess() uint64 { return s.consecutiveSuccess }

// Decision returns the current decision.
func (s *Solver[Tx]) Decision() opinion.Decision[Tx] { return s.decision }

// Opinion returns the opinion wrapped by the current decision.
func (s *Solver[Tx]) Opinion() opinion.Opinion[Tx] { return s.decision.Opinion }

// Vote derives the published vote from the current decision.
func (s *Solver[Tx]) Vote() (opinion.Vote[Tx], bool) { return s.decision.Vote() }

// NodeQuery returns this solver's sampling descriptor.
func (s *Solver[Tx]) NodeQuery() sampler.NodeQuery { return s.nodeQuery }

func (s *Solver[Tx]) String() string {
	return fmt.Sprintf("Snowball(consecutiveSuccess=%d, %s)", s.consecutiveSuccess, s.decision)
}
