// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"github.com/luxfi/snowsim/sampler"
	"github.com/luxfi/snowsim/simnode"
)

// runAsync implements the chunked-Async discipline: each round is a
// random permutation of node ids cut into chunks of size chunkSize; nodes
// in a chunk step in parallel against the vector as of the end of the
// previous chunk, and their votes become visible to subsequent chunks
// within the same round (spec.md §4.5). The master-omniscient node steps
// before every chunk, not once per round, so puppets never see stale
// adversarial votes while honest votes evolve chunk-to-chunk. The round
// counter advances after a full pass over every chunk.
func (r *Runner) runAsync(chunkSize int) {
	if chunkSize <= 0 {
		chunkSize = 1
	}

	for {
		perm := make([]int, len(r.nodes))
		for i := range perm {
			perm[i] = i
		}
		shufflePerm(perm, r.rng)

		for start := 0; start < len(perm); start += chunkSize {
			r.stepMasterFirst()

			end := start + chunkSize
			if end > len(perm) {
				end = len(perm)
			}
			chunk := make([]*simnode.Node, 0, end-start)
			for _, idx := range perm[start:end] {
				chunk = append(chunk, r.nodes[idx])
			}
			r.stepAllParallel(chunk)

			r.iteration++
			if r.metrics != nil {
				r.metrics.Iterations.Inc()
			}
			r.snapshot()
			if r.checkWards() {
				return
			}
		}

		r.applyModifiers()
		r.round++
		if r.metrics != nil {
			r.metrics.Rounds.Inc()
		}
	}
}

// shufflePerm performs a Fisher-Yates shuffle using the runner's seeded
// source, matching the teacher's rand.Shuffle idiom (cmd/consensus/
// simulator.go's sampleNodes) but driven by the run-level Source so async
// scheduling stays reproducible from the configured seed.
func shufflePerm(perm []int, src sampler.Source) {
	for i := len(perm) - 1; i > 0; i-- {
		j := int(src.Uint64() % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
}
