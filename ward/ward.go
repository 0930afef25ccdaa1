// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ward implements the termination predicates of spec.md §4.7,
// following the teacher's small-interface-plus-concrete-struct idiom seen
// in consensus/focus (terminationConditions): each ward is a plain struct
// with an Analyze method, dispatched through a tagged Ward much like
// simnode.Node's sum type.
package ward

import "fmt"

// State is the subset of runner state a ward needs to evaluate.
type State struct {
	Iteration uint64
	Round     uint64
	Decided   int
	Total     int
	// YesCount/NoCount is the current vote tally across the network
	// state, sampled once per iteration by the runner for Stabilised.
	YesCount int
	NoCount  int
}

// Kind tags which termination predicate a Ward wraps.
type Kind uint8

const (
	KindTimeToFinality Kind = iota
	KindConverged
	KindStabilised
)

// StabilisedCheck selects when Stabilised samples the vote tally.
type StabilisedCheck struct {
	// PerRound is true for the Rounds variant (sample only when the round
	// counter has advanced since the last sample); false selects the
	// Iterations variant, sampling every Chunk iterations.
	PerRound bool
	Chunk    uint64
}

// Ward is a tagged union of the three termination predicates.
type Ward struct {
	kind Kind

	// TimeToFinality
	threshold uint64

	// Converged
	ratio float64

	// Stabilised
	check      StabilisedCheck
	buffer     []pair
	bufferSize int
	lastRound  uint64
	sampled    bool
}

type pair struct {
	yes, no int
}

// NewTimeToFinality fires once round exceeds threshold.
func NewTimeToFinality(threshold uint64) *Ward {
	return &Ward{kind: KindTimeToFinality, threshold: threshold}
}

// NewConverged fires once the Decided fraction reaches ratio. ratio must
// be validated to lie in [0,1] by the settings loader before this is
// constructed (spec.md §7).
func NewConverged(ratio float64) *Ward {
	return &Ward{kind: KindConverged, ratio: ratio}
}

// NewStabilised fires once a ring buffer of bufferSize (yes,no) samples is
// full and every entry is identical.
func NewStabilised(bufferSize int, check StabilisedCheck) *Ward {
	return &Ward{kind: KindStabilised, bufferSize: bufferSize, check: check}
}

// Kind returns the ward's tag.
func (w *Ward) Kind() Kind { return w.kind }

// Analyze reports whether this ward's termination condition holds for
// the given state, and for Stabilised, advances its internal ring buffer
// as a side effect (it is a stateful predicate, matching the original's
// mutable sample history).
func (w *Ward) Analyze(s State) bool {
	switch w.kind {
	case KindTimeToFinality:
		return s.Round > w.threshold

	case KindConverged:
		if s.Total == 0 {
			return false
		}
		return float64(s.Decided)/float64(s.Total) >= w.ratio

	case KindStabilised:
		return w.analyzeStabilised(s)

	default:
		return false
	}
}

func (w *Ward) analyzeStabilised(s State) bool {
	sample := false
	if w.check.PerRound {
		sample = !w.sampled || s.Round != w.lastRound
	} else {
		chunk := w.check.Chunk
		if chunk == 0 {
			chunk = 1
		}
		sample = s.Iteration%chunk == 0
	}
	if !sample {
		return w.bufferFullAndEqual()
	}

	w.sampled = true
	w.lastRound = s.Round
	w.buffer = append(w.buffer, pair{yes: s.YesCount, no: s.NoCount})
	if len(w.buffer) > w.bufferSize {
		w.buffer = w.buffer[len(w.buffer)-w.bufferSize:]
	}
	return w.bufferFullAndEqual()
}

func (w *Ward) bufferFullAndEqual() bool {
	if len(w.buffer) < w.bufferSize || w.bufferSize == 0 {
		return false
	}
	first := w.buffer[0]
	for _, p := range w.buffer[1:] {
		if p != first {
			return false
		}
	}
	return true
}

func (w *Ward) String() string {
	switch w.kind {
	case KindTimeToFinality:
		return fmt.Sprintf("TimeToFinality(threshold=%d)", w.threshold)
	case KindConverged:
		return fmt.Sprintf("Converged(ratio=%.3f)", w.ratio)
	case KindStabilised:
		return fmt.Sprintf("Stabilised(buffer=%d)", w.bufferSize)
	default:
		return "Ward(unknown)"
	}
}

// AnyFired evaluates every ward in order and reports whether at least one
// fired (logical OR, per spec.md §4.7). It does not short-circuit:
// Stabilised's stateful sampling means every ward must run every
// iteration, so the full list is always evaluated.
func AnyFired(wards []*Ward, s State) bool {
	fired := false
	for _, w := range wards {
		if w.Analyze(s) {
			fired = true
		}
	}
	return fired
}
