// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snowball

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
)

func votes(yes bool, n int) []opinion.Vote[int] {
	out := make([]opinion.Vote[int], n)
	for i := range out {
		out[i] = opinion.Vote[int]{Yes: yes}
	}
	return out
}

func TestSnowballConvergesOnUnanimousAgreement(t *testing.T) {
	require := require.New(t)

	cfg := Configuration{QuorumSize: 1, SampleSize: 10, DecisionThreshold: 10}
	nq := sampler.NewNodeQuery(10, 0)
	s := WithInitialOpinion(cfg, nq, opinion.Opinion[int]{Tag: opinion.Yes, Tx: 1})

	for i := 0; i < 11; i++ {
		s.Step(votes(true, 10))
	}

	require.True(s.Decision().Final)
	require.Equal(opinion.Tag(opinion.Yes), s.Opinion().Tag)
	require.Equal(uint64(11), s.ConsecutiveSuccess())
}

func TestSnowballFlipsOnUnanimousDisagreement(t *testing.T) {
	require := require.New(t)

	cfg := Configuration{QuorumSize: 1, SampleSize: 10, DecisionThreshold: 10}
	nq := sampler.NewNodeQuery(10, 0)
	s := WithInitialOpinion(cfg, nq, opinion.Opinion[int]{Tag: opinion.Yes, Tx: 1})

	s.Step(votes(false, 10))
	require.False(s.Decision().Final)
	require.Equal(opinion.Tag(opinion.No), s.Opinion().Tag)
	require.Equal(uint64(1), s.ConsecutiveSuccess())

	for i := 0; i < 10; i++ {
		s.Step(votes(false, 10))
	}
	require.True(s.Decision().Final)
	require.Equal(opinion.Tag(opinion.No), s.Opinion().Tag)
}

func TestSnowballResetsOnNoQuorum(t *testing.T) {
	require := require.New(t)

	cfg := Configuration{QuorumSize: 2, SampleSize: 10, DecisionThreshold: 10}
	nq := sampler.NewNodeQuery(10, 0)
	s := WithInitialOpinion(cfg, nq, opinion.Opinion[int]{Tag: opinion.Yes, Tx: 1})

	s.Step([]opinion.Vote[int]{{Yes: false}, {Yes: true}})

	require.Equal(uint64(0), s.ConsecutiveSuccess())
	require.Equal(opinion.Tag(opinion.Yes), s.Opinion().Tag)
	require.False(s.Decision().Final)
}

func TestSnowballStepOnDecidedPanics(t *testing.T) {
	cfg := Configuration{QuorumSize: 1, SampleSize: 1, DecisionThreshold: 0}
	nq := sampler.NewNodeQuery(1, 0)
	s := WithInitialOpinion(cfg, nq, opinion.Opinion[int]{Tag: opinion.Yes, Tx: 1})

	s.Step(votes(true, 1))
	require.True(t, s.Decision().Final)

	require.Panics(t, func() { s.Step(votes(true, 1)) })
}

func TestSnowballNoneOpinionFlipsToQuorumSide(t *testing.T) {
	require := require.New(t)

	cfg := Configuration{QuorumSize: 1, SampleSize: 10, DecisionThreshold: 10}
	nq := sampler.NewNodeQuery(10, 0)
	s := New(1, cfg, nq)
	require.Equal(opinion.Tag(opinion.None), s.Opinion().Tag)

	s.Step(votes(false, 10))
	require.Equal(opinion.Tag(opinion.No), s.Opinion().Tag)
	require.Equal(uint64(1), s.ConsecutiveSuccess())
}
