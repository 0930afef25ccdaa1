// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/snowsim/modifier"
	"github.com/luxfi/snowsim/output"
	"github.com/luxfi/snowsim/sampler"
	"github.com/luxfi/snowsim/settings"
	"github.com/luxfi/snowsim/simnode"
	"github.com/luxfi/snowsim/ward"
)

// ErrEmptyPopulation is returned when total_size resolves to zero nodes.
var ErrEmptyPopulation = errors.New("runner: population is empty")

// Runner drives one simulation run end to end: it owns the network state,
// the node population, the configured wards and modifiers, and a single
// run-level RNG from which every node's private RNG was derived at
// construction (spec.md §5/§9).
type Runner struct {
	network   *simnode.NetworkState
	nodes     []*simnode.Node
	master    *simnode.Node
	wards     []*ward.Ward
	modifiers []modifier.NetworkBehaviour
	rng       sampler.Source
	style     settings.SimulationStyle

	log     *zap.Logger
	metrics *Metrics

	iteration uint64
	round     uint64
	records   []output.Record
}

// New constructs a Runner from settings. log defaults to a no-op logger
// and metrics may be nil (no collectors registered), matching the
// teacher's Context{Log: log.Logger} pattern of optional observability.
func New(s *settings.SimulationSettings, log *zap.Logger, metrics *Metrics) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}

	seed := resolveSeed(s.Seed)
	log.Info("runner: seed selected", zap.Uint64("seed", seed))

	nodes, network, master, err := buildPopulation(s, int64(seed))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrEmptyPopulation
	}

	wards, err := buildWards(s.Wards)
	if err != nil {
		return nil, err
	}
	modifiers, err := buildModifiers(s.NetworkModifiers)
	if err != nil {
		return nil, err
	}

	return &Runner{
		network:   network,
		nodes:     nodes,
		master:    master,
		wards:     wards,
		modifiers: modifiers,
		rng:       sampler.NewSource(int64(seed)),
		style:     s.SimulationStyle,
		log:       log,
		metrics:   metrics,
	}, nil
}

func resolveSeed(configured *uint64) uint64 {
	if configured != nil {
		return *configured
	}
	return uint64(time.Now().UnixNano())
}

func buildWards(ws []settings.WardSettings) ([]*ward.Ward, error) {
	out := make([]*ward.Ward, 0, len(ws))
	for _, w := range ws {
		switch w.Kind {
		case "time_to_finality":
			out = append(out, ward.NewTimeToFinality(w.Threshold))
		case "converged":
			out = append(out, ward.NewConverged(w.Ratio))
		case "stabilised":
			check := ward.StabilisedCheck{PerRound: w.Check == "rounds", Chunk: w.Chunk}
			out = append(out, ward.NewStabilised(w.Buffer, check))
		default:
			return nil, fmt.Errorf("runner: unknown ward kind %q", w.Kind)
		}
	}
	return out, nil
}

func buildModifiers(ms []settings.ModifierSettings) ([]modifier.NetworkBehaviour, error) {
	out := make([]modifier.NetworkBehaviour, 0, len(ms))
	for _, m := range ms {
		switch m.Kind {
		case "random_drop":
			out = append(out, modifier.NewRandomDrop(m.DropRate))
		default:
			return nil, fmt.Errorf("runner: unknown network modifier kind %q", m.Kind)
		}
	}
	return out, nil
}

// Run executes the simulation to ward-fired termination (or, for Glauber,
// to its maximum_iterations bound) and returns the accumulated output
// records.
func (r *Runner) Run() ([]output.Record, error) {
	switch r.style.Kind {
	case "sync":
		r.runSync()
	case "async":
		r.runAsync(r.style.Chunks)
	case "glauber":
		r.runGlauber(r.style.MaximumIterations, r.style.UpdateRate)
	case "layered":
		r.runLayered(r.style.RoundsGap, r.style.Distribution)
	default:
		return nil, fmt.Errorf("runner: unknown simulation style %q", r.style.Kind)
	}
	return r.records, nil
}

// stepMasterFirst steps the master-omniscient node, if one exists, ahead
// of every honest/adversary node this iteration (spec.md §4.5: "the
// master-omniscient node ... steps before honest/adversary nodes each
// iteration so puppets observe fresh adversarial votes").
func (r *Runner) stepMasterFirst() {
	if r.master != nil {
		r.master.Step(r.network)
	}
}

func (r *Runner) checkWards() bool {
	yes, no := r.network.VoteCounts()
	decided, total := simnode.DecidedFraction(r.nodes)
	state := ward.State{
		Iteration: r.iteration,
		Round:     r.round,
		Decided:   decided,
		Total:     total,
		YesCount:  yes,
		NoCount:   no,
	}
	fired := ward.AnyFired(r.wards, state)
	if r.metrics != nil {
		r.metrics.DecidedFraction.Set(float64(decided) / float64(total))
		if fired {
			r.metrics.WardsFired.Inc()
		}
	}
	if fired {
		r.log.Info("runner: ward fired",
			zap.Uint64("iteration", r.iteration),
			zap.Uint64("round", r.round),
			zap.Int("decided", decided),
			zap.Int("total", total))
	}
	return fired
}

func (r *Runner) applyModifiers() {
	for _, m := range r.modifiers {
		m.Apply(r.network, r.rng)
	}
}

func (r *Runner) snapshot() {
	for _, n := range r.nodes {
		vote, ok := n.Vote()
		var v uint8
		if ok {
			if vote.Yes {
				v = 1
			} else {
				v = 2
			}
		}
		r.records = append(r.records, output.Record{
			ID:        uint64(n.ID()),
			Iteration: r.iteration,
			Round:     r.round,
			Vote:      v,
			Type:      n.Kind().String(),
			State:     n.StateRecord(),
		})
	}
}

func (r *Runner) allDecided() bool {
	decided, total := simnode.DecidedFraction(r.nodes)
	return decided == total
}
