// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
	"github.com/luxfi/snowsim/simnode"
)

func allPresent(n int) *simnode.NetworkState {
	ns := simnode.NewNetworkState(n)
	for i := 0; i < n; i++ {
		ns.Set(i, opinion.Vote[simnode.NoTx]{Yes: true})
	}
	return ns
}

func countPresent(ns *simnode.NetworkState) int {
	count := 0
	for i := 0; i < ns.Len(); i++ {
		if _, ok := ns.Get(i); ok {
			count++
		}
	}
	return count
}

func TestRandomDropRateZeroIsNoOp(t *testing.T) {
	require := require.New(t)

	ns := allPresent(10)
	m := NewRandomDrop(0)
	m.Apply(ns, sampler.NewSource(1))

	require.Equal(10, countPresent(ns))
}

func TestRandomDropRateOneClearsEverything(t *testing.T) {
	require := require.New(t)

	ns := allPresent(10)
	m := NewRandomDrop(1)
	m.Apply(ns, sampler.NewSource(1))

	require.Equal(0, countPresent(ns))
}

func TestRandomDropHalfRateLeavesHalfPresent(t *testing.T) {
	require := require.New(t)

	ns := allPresent(10)
	m := NewRandomDrop(0.5)
	m.Apply(ns, sampler.NewSource(42))

	require.Equal(5, countPresent(ns))
}

func TestRandomDropRateClampedToUnitRange(t *testing.T) {
	require := require.New(t)

	require.Equal(0.0, NewRandomDrop(-1).Rate())
	require.Equal(1.0, NewRandomDrop(2).Rate())
}
