// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"sync"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/simnode"
)

// runSync implements the Sync discipline: every node steps every
// iteration in parallel against the pre-iteration vector snapshot, and
// all resulting votes are applied together before the next iteration
// begins (spec.md §4.5 "no intra-iteration visibility"). The master, if
// present, steps first and alone so puppets observe fresh adversarial
// votes before the parallel phase runs; it is excluded from the parallel
// phase since stepMasterFirst already advanced it this iteration.
func (r *Runner) runSync() {
	for {
		r.stepMasterFirst()
		r.stepAllParallel(r.nodes)
		r.applyModifiers()
		r.iteration++
		r.round++
		if r.metrics != nil {
			r.metrics.Iterations.Inc()
			r.metrics.Rounds.Inc()
		}
		r.snapshot()

		if r.checkWards() {
			return
		}
	}
}

type nodeWrite struct {
	id      int
	vote    opinion.Vote[simnode.NoTx]
	present bool
}

// stepAllParallel runs every node in batch (skipping the master, which
// must have already stepped) concurrently, and applies their votes
// together once all goroutines complete, so no node in the batch observes
// another batch member's write this iteration.
func (r *Runner) stepAllParallel(batch []*simnode.Node) {
	results := make(chan nodeWrite, len(batch))

	var wg sync.WaitGroup
	for _, n := range batch {
		if r.master != nil && n.ID() == r.master.ID() {
			continue
		}
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, ok := n.Step(r.network)
			results <- nodeWrite{id: n.ID(), vote: v, present: ok}
		}()
	}
	wg.Wait()
	close(results)

	for w := range results {
		if w.present {
			r.network.Set(w.id, w.vote)
		}
	}
}
