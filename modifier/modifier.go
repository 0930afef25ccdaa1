// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package modifier implements the post-step network perturbations of
// spec.md §4.6, grounded on the same weighted/uniform draw machinery as
// package sampler (utils/sampler/uniform.go's index-without-replacement
// idiom), here drawing indices to drop rather than peers to query.
package modifier

import (
	"math"

	"github.com/luxfi/snowsim/sampler"
	"github.com/luxfi/snowsim/simnode"
)

// NetworkBehaviour mutates the shared network state after a step, under
// exclusive access (spec.md §4.6).
type NetworkBehaviour interface {
	Apply(ns *simnode.NetworkState, src sampler.Source)
}

// RandomDrop clears a rate-determined count of network-state entries each
// time it is applied. Rate is clamped to [0,1] at construction.
type RandomDrop struct {
	rate float64
}

// NewRandomDrop clamps rate into [0,1] and returns a RandomDrop modifier.
func NewRandomDrop(rate float64) *RandomDrop {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &RandomDrop{rate: rate}
}

// Rate returns the configured (already-clamped) drop rate.
func (r *RandomDrop) Rate() float64 { return r.rate }

// Apply clears round(rate*n) uniformly-chosen entries of ns.
func (r *RandomDrop) Apply(ns *simnode.NetworkState, src sampler.Source) {
	n := ns.Len()
	count := int(math.Round(r.rate * float64(n)))
	if count <= 0 {
		return
	}
	if count > n {
		count = n
	}
	idx := uniformIndicesWithoutReplacement(n, count, src)
	ns.ApplyRandomDrop(idx)
}

// uniformIndicesWithoutReplacement draws count distinct indices in
// [0,n) uniformly, following utils/sampler/uniform.go's reservoir-style
// rejection-until-unused walk.
func uniformIndicesWithoutReplacement(n, count int, src sampler.Source) []int {
	used := make(map[int]bool, count)
	out := make([]int, 0, count)
	for len(out) < count {
		idx := int(src.Uint64() % uint64(n))
		if used[idx] {
			continue
		}
		used[idx] = true
		out = append(out, idx)
	}
	return out
}
