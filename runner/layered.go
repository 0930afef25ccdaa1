// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

// runLayered implements the Layered discipline: a bounded sliding-window
// deque of gap+1 layers (sets of node ids). Layer 0 starts with every id;
// each iteration picks a non-empty layer, weighted by distribution, from
// the gap layers below the window's top slot — the top slot (the
// just-promoted-as-far-as-possible layer) is not directly selectable
// until the window slides and brings it down (spec.md §4.5,
// layered_runner.rs's distribution[0..gap] range). The chosen layer's
// node is removed, stepped, and (if still Undecided) promoted into the
// next layer, clamped at the window's last slot. When layer 0 empties,
// the window slides: the front is dropped and a fresh empty layer
// appended at the back, completing a round.
func (r *Runner) runLayered(gap int, distribution []float64) {
	if gap < 0 {
		gap = 0
	}
	numLayers := gap + 1

	layers := make([][]int, numLayers)
	layers[0] = make([]int, len(r.nodes))
	for i, n := range r.nodes {
		layers[0][i] = n.ID()
	}

	selectableLimit := numLayers
	if numLayers > 1 {
		selectableLimit = numLayers - 1
	}

	weights := distribution
	if len(weights) != selectableLimit {
		weights = make([]float64, selectableLimit)
		for i := range weights {
			weights[i] = 1.0
		}
	}

	for {
		r.stepMasterFirst()

		nonEmpty := make([]int, 0, selectableLimit)
		var total float64
		for i := 0; i < selectableLimit; i++ {
			if len(layers[i]) > 0 {
				nonEmpty = append(nonEmpty, i)
				total += weights[i]
			}
		}
		if len(nonEmpty) == 0 {
			if len(layers[numLayers-1]) == 0 {
				return
			}
			// Everything selectable has drained into the window's top
			// slot; slide so it becomes reachable again.
			layers = append(layers[1:], make([]int, 0))
			r.round++
			if r.metrics != nil {
				r.metrics.Rounds.Inc()
			}
			continue
		}

		layerIdx := r.pickWeightedLayer(nonEmpty, weights, total)
		layer := layers[layerIdx]
		pos := int(r.rng.Uint64() % uint64(len(layer)))
		id := layer[pos]
		layer[pos] = layer[len(layer)-1]
		layers[layerIdx] = layer[:len(layer)-1]

		node := r.nodes[id]
		v, ok := node.Step(r.network)
		if ok {
			r.network.Set(id, v)
		}
		r.applyModifiers()

		if !node.Decision().Final {
			next := layerIdx + 1
			if next >= numLayers {
				next = numLayers - 1
			}
			layers[next] = append(layers[next], id)
		}

		if len(layers[0]) == 0 {
			layers = append(layers[1:], make([]int, 0))
			r.round++
			if r.metrics != nil {
				r.metrics.Rounds.Inc()
			}
		}

		r.iteration++
		if r.metrics != nil {
			r.metrics.Iterations.Inc()
		}
		r.snapshot()

		if r.checkWards() {
			return
		}
	}
}

// pickWeightedLayer draws one of the nonEmpty layer indices, weighted by
// weights, following the same cumulative-weight-walk idiom as
// sampler.weightedSampleWithoutReplacement.
func (r *Runner) pickWeightedLayer(nonEmpty []int, weights []float64, total float64) int {
	if total <= 0 {
		return nonEmpty[0]
	}
	target := (float64(r.rng.Uint64()%1_000_000_007) / 1_000_000_007.0) * total
	var cum float64
	for _, idx := range nonEmpty {
		cum += weights[idx]
		if target <= cum {
			return idx
		}
	}
	return nonEmpty[len(nonEmpty)-1]
}
