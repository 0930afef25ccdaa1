// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simnode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
)

func TestNetworkStateSetGetAbsent(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(3)
	require.Equal(3, ns.Len())

	_, ok := ns.Get(0)
	require.False(ok)

	ns.Set(0, opinion.Vote[NoTx]{Yes: true})
	v, ok := ns.Get(0)
	require.True(ok)
	require.True(v.Yes)

	ns.SetAbsent(0)
	_, ok = ns.Get(0)
	require.False(ok)
}

func TestSampleVotesDropsAbsentEntries(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(5)
	ns.Set(1, opinion.Vote[NoTx]{Yes: true})
	ns.Set(2, opinion.Vote[NoTx]{Yes: false})
	// 0, 3, 4 stay absent

	nq := sampler.NewNodeQuery(4, 0)
	votes := ns.SampleVotes(nq, sampler.NewSource(1))

	require.LessOrEqual(len(votes), 2)
}

func TestVoteCounts(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(4)
	ns.Set(0, opinion.Vote[NoTx]{Yes: true})
	ns.Set(1, opinion.Vote[NoTx]{Yes: true})
	ns.Set(2, opinion.Vote[NoTx]{Yes: false})

	yes, no := ns.VoteCounts()
	require.Equal(2, yes)
	require.Equal(1, no)
}

func TestApplyRandomDropClearsSelectedIndices(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(4)
	for i := 0; i < 4; i++ {
		ns.Set(i, opinion.Vote[NoTx]{Yes: true})
	}

	ns.ApplyRandomDrop([]int{1, 2})

	_, ok := ns.Get(0)
	require.True(ok)
	_, ok = ns.Get(1)
	require.False(ok)
	_, ok = ns.Get(2)
	require.False(ok)
	_, ok = ns.Get(3)
	require.True(ok)
}
