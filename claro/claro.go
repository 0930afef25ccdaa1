// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package claro implements the confidence-weighted evidence-mixture
// consensus solver described in spec.md §4.3. It has no direct analogue in
// the teacher's threshold-ladder Snow protocols (consensus/focus); it is
// grounded directly on original_source/consensus/claro/src/claro.rs and
// query.rs, expressed in the teacher's Go idiom: explicit configuration
// structs, a mutating Step method, and fmt.Stringer state dumps.
package claro

import (
	"fmt"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
)

// QueryConfiguration is the mutable per-node sampling configuration that
// Step grows on inconclusive rounds.
type QueryConfiguration struct {
	QuerySize        int
	InitialQuerySize int
	QueryMultiplier  int
	MaxMultiplier    int
}

// NewQueryConfiguration builds a configuration with the teacher's default
// growth factors (multiplier 2, ceiling 4x the initial size).
func NewQueryConfiguration(querySize int) QueryConfiguration {
	return QueryConfiguration{
		QuerySize:        querySize,
		InitialQuerySize: querySize,
		QueryMultiplier:  2,
		MaxMultiplier:    4,
	}
}

// grow enlarges QuerySize by QueryMultiplier, saturating at
// InitialQuerySize*MaxMultiplier (spec.md §4.3 step 5, §8 invariant 5).
func (q *QueryConfiguration) grow() {
	grown := q.QuerySize * q.QueryMultiplier
	ceiling := q.InitialQuerySize * q.MaxMultiplier
	if grown > ceiling {
		grown = ceiling
	}
	q.QuerySize = grown
}

// Configuration is the static Claro algorithm configuration.
type Configuration struct {
	EvidenceAlpha   float64
	EvidenceAlpha2  float64
	ConfidenceBeta  float64
	LookAhead       int
	Query           QueryConfiguration
}

// State holds Claro's three non-decreasing counters (spec.md §3).
type State struct {
	Evidence             uint64
	EvidenceAccumulated  uint64
	Confidence           uint64
}

func (st *State) update(votes []opinion.Vote[any]) {
	var yes uint64
	for _, v := range votes {
		if v.Yes {
			yes++
		}
	}
	total := uint64(len(votes))
	st.Evidence += yes
	st.EvidenceAccumulated += total
	st.Confidence += total
}

// roundCalculation holds the derived quantities of a single round, kept
// for observability/logging parity with the original's ClaroRoundCalculation.
type roundCalculation struct {
	confidence float64
	e1, e2, e  float64
	alphaEff   float64
}

// Solver is a single node's Claro state machine. Not safe for concurrent
// use; see snowball.Solver's equivalent note.
type Solver[Tx any] struct {
	state         State
	configuration Configuration
	decision      opinion.Decision[Tx]
	nodeQuery     sampler.NodeQuery
}

// New creates a solver defaulting to opinion.Yes, matching the original's
// ClaroSolver::new (arbitrary non-None default; with_initial_opinion
// overrides it for the simulation driver).
func New[Tx any](tx Tx, cfg Configuration, nq sampler.NodeQuery) *Solver[Tx] {
	return &Solver[Tx]{
		configuration: cfg,
		decision:      opinion.Undecided(opinion.Opinion[Tx]{Tag: opinion.Yes, Tx: tx}),
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

// Step advances the solver given a transaction payload and a sample of peer
// votes, per spec.md §4.3. Precondition: current decision is Undecided.
func (s *Solver[Tx]) Step(tx Tx, votes []opinion.Vote[Tx]) {
	if s.decision.Final {
		panic("claro: Step called on a Decided solver")
	}

	if s.Opinion().Tag == opinion.None && len(votes) > 0 {
		s.decision = opinion.Undecided(opinion.ToOpinion(votes[0]))
	}

	if len(votes) == 0 {
		return
	}

	generic := make([]opinion.Vote[any], len(votes))
	for i, v := range votes {
		generic[i] = opinion.Vote[any]{Yes: v.Yes}
	}
	s.state.update(generic)

	rc := s.roundState(votes)
	switch {
	case rc.e > rc.alphaEff:
		s.decision = opinion.Undecided(opinion.Opinion[Tx]{Tag: opinion.Yes, Tx: tx})
	case rc.e < 1-rc.alphaEff:
		s.decision = opinion.Undecided(opinion.Opinion[Tx]{Tag: opinion.No, Tx: tx})
	default:
		s.configuration.Query.grow()
	}

	if rc.confidence > s.configuration.ConfidenceBeta {
		s.decision = opinion.Decided(s.Opinion())
	}
}

// roundState computes the mixed evidence/confidence/threshold quantities
// of spec.md §4.3 step 4. Division guards follow spec.md §7: a zero
// denominator skips the contribution rather than producing NaN. This only
// matters for evidenceAccumulated, which Step's len(votes)==0 guard
// already makes unreachable at zero; the guard is kept explicit because
// the accumulated ratio is evaluated unconditionally by roundState.
func (s *Solver[Tx]) roundState(votes []opinion.Vote[Tx]) roundCalculation {
	lookAhead := float64(s.configuration.LookAhead)
	confidence := float64(s.state.Confidence) / (float64(s.state.Confidence) + lookAhead)

	var yesInRound uint64
	for _, v := range votes {
		if v.Yes {
			yesInRound++
		}
	}
	totalInRound := len(votes)

	var e1 float64
	if totalInRound > 0 {
		e1 = float64(yesInRound) / float64(totalInRound)
	}

	var e2 float64
	if s.state.EvidenceAccumulated > 0 {
		e2 = float64(s.state.Evidence) / float64(s.state.EvidenceAccumulated)
	}

	e := e1*(1-confidence) + e2*confidence
	alphaEff := s.configuration.EvidenceAlpha*(1-confidence) + s.configuration.EvidenceAlpha2*confidence

	return roundCalculation{confidence: confidence, e1: e1, e2: e2, e: e, alphaEff: alphaEff}
}

// State returns the solver's evidence/confidence counters.
func (s *Solver[Tx]) State() State { return s.state }

// Decision returns the current decision.
func (s *Solver[Tx]) Decision() opinion.Decision[Tx] { return s.decision }

// Opinion returns the opinion wrapped by the current decision.
func (s *Solver[Tx]) Opinion() opinion.Opinion[Tx] { return s.decision.Opinion }

// Vote derives the published vote from the current decision.
func (s *Solver[Tx]) Vote() (opinion.Vote[Tx], bool) { return s.decision.Vote() }

// NodeQuery returns this solver's (growable) sampling descriptor.
func (s *Solver[Tx]) NodeQuery() sampler.NodeQuery {
	return sampler.NewNodeQuery(s.configuration.Query.QuerySize, s.nodeQuery.SelfID)
}

func (s *Solver[Tx]) String() string {
	return fmt.Sprintf("Claro(evidence=%d, accumulated=%d, confidence=%d, %s)",
		s.state.Evidence, s.state.EvidenceAccumulated, s.state.Confidence, s.decision)
}
