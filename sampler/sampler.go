// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sampler implements the per-node weighted query sampler described
// in spec.md §4.1, adapted from the teacher's
// utils/sampler/{weighted,uniform,source}.go without-replacement weighted
// sampler.
package sampler

import (
	"math/rand"
)

// Source is a source of randomness for a single node's queries. The runner
// seeds one Source per node from its own run-level seed at construction, so
// parallel steps never contend on a shared generator (spec.md §5, §9).
type Source interface {
	Uint64() uint64
}

type source struct {
	*rand.Rand
}

// NewSource returns a Source seeded deterministically from seed.
func NewSource(seed int64) Source {
	return &source{Rand: rand.New(rand.NewSource(seed))}
}

// NodesSample supplies the candidate ids and their sampling weights
// (stake). Weights must be positive.
type NodesSample interface {
	Nodes() []int
	Weight(id int) float64
}

// NodeQuery is a per-node sampling descriptor: how many peers to draw, and
// which id to exclude as "self".
type NodeQuery struct {
	QuerySize int
	SelfID    int
}

// NewNodeQuery builds a descriptor for selfID querying querySize peers.
func NewNodeQuery(querySize, selfID int) NodeQuery {
	return NodeQuery{QuerySize: querySize, SelfID: selfID}
}

// Sample draws up to QuerySize distinct peer ids from ns by weight, without
// replacement, excluding SelfID. It requests QuerySize+1 draws and filters
// self post-hoc, so self-selection costs one draw rather than an index
// collision (spec.md §4.1).
func (q NodeQuery) Sample(ns NodesSample, src Source) []int {
	ids := ns.Nodes()
	if len(ids) == 0 || q.QuerySize <= 0 {
		return nil
	}

	weights := make([]float64, len(ids))
	var total float64
	for i, id := range ids {
		w := ns.Weight(id)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return nil
	}

	draws := q.QuerySize + 1
	picked := weightedSampleWithoutReplacement(ids, weights, total, draws, src)

	result := make([]int, 0, q.QuerySize)
	for _, id := range picked {
		if id == q.SelfID {
			continue
		}
		result = append(result, id)
		if len(result) == q.QuerySize {
			break
		}
	}
	return result
}

// weightedSampleWithoutReplacement draws up to n distinct indices from ids
// weighted by weights, following the teacher's
// weightedWithoutReplacement.Sample: draw a cumulative-weight position,
// reject repeats, walk the cumulative weight to find the owning index.
func weightedSampleWithoutReplacement(ids []int, weights []float64, total float64, n int, src Source) []int {
	if n > len(ids) {
		n = len(ids)
	}
	used := make(map[int]bool, n)
	out := make([]int, 0, n)

	for len(out) < n {
		target := (float64(src.Uint64()%1_000_000_007) / 1_000_000_007.0) * total
		var cum float64
		idx := -1
		for i, w := range weights {
			if used[i] {
				continue
			}
			cum += w
			if target <= cum {
				idx = i
				break
			}
		}
		if idx == -1 {
			// floating point edge: fall back to the first unused index.
			for i := range ids {
				if !used[i] {
					idx = i
					break
				}
			}
		}
		if idx == -1 {
			break
		}
		used[idx] = true
		out = append(out, ids[idx])
	}
	return out
}
