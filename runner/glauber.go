// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import "github.com/luxfi/snowsim/simnode"

// runGlauber implements the Glauber discipline: one uniformly-chosen
// still-undecided node steps per iteration; its vote is written
// immediately, wards are checked, and modifiers applied, before the next
// pick. It stops when every node is Decided or maximumIterations is
// reached. Snapshots are taken every updateRate iterations rather than
// every single one (spec.md §4.5).
func (r *Runner) runGlauber(maximumIterations, updateRate uint64) {
	if updateRate == 0 {
		updateRate = 1
	}

	for maximumIterations == 0 || r.iteration < maximumIterations {
		r.stepMasterFirst()

		candidates := r.undecidedExcludingMaster()
		if len(candidates) == 0 {
			return
		}
		pick := candidates[r.rng.Uint64()%uint64(len(candidates))]

		v, ok := pick.Step(r.network)
		if ok {
			r.network.Set(pick.ID(), v)
		}
		r.applyModifiers()

		r.iteration++
		if r.metrics != nil {
			r.metrics.Iterations.Inc()
		}
		if r.iteration%updateRate == 0 {
			r.snapshot()
		}
		if r.checkWards() {
			return
		}
		if r.allDecided() {
			return
		}
	}
}

// undecidedExcludingMaster returns every node not yet Decided, excluding
// the master (which steps in its own dedicated pre-phase every
// iteration, not via random pick).
func (r *Runner) undecidedExcludingMaster() []*simnode.Node {
	out := make([]*simnode.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		if r.master != nil && n.ID() == r.master.ID() {
			continue
		}
		if !n.Decision().Final {
			out = append(out, n)
		}
	}
	return out
}
