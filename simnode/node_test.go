// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simnode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/snowsim/opinion"
	"github.com/luxfi/snowsim/sampler"
	"github.com/luxfi/snowsim/snowball"
)

func TestSnowballNodeStepsAndPublishes(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(12)
	for i := 1; i < 11; i++ {
		ns.Set(i, opinion.Vote[NoTx]{Yes: true})
	}

	cfg := snowball.Configuration{QuorumSize: 1, SampleSize: 10, DecisionThreshold: 10}
	nq := sampler.NewNodeQuery(10, 0)
	solver := snowball.WithInitialOpinion(cfg, nq, opinion.Opinion[NoTx]{Tag: opinion.Yes})
	node := NewSnowballNode(0, solver, nq, sampler.NewSource(1))

	v, ok := node.Step(ns)
	require.True(ok)
	require.True(v.Yes)
	require.False(node.Decision().Final)
}

func TestInfantileNodePublishesOppositeOfMajority(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(6)
	for i := 1; i < 5; i++ {
		ns.Set(i, opinion.Vote[NoTx]{Yes: true})
	}

	nq := sampler.NewNodeQuery(4, 0)
	node := NewInfantileNode(0, nq, sampler.NewSource(7), opinion.Opinion[NoTx]{Tag: opinion.None})

	v, ok := node.Step(ns)
	require.True(ok)
	require.False(v.Yes) // majority was Yes, infantile publishes No
	require.False(node.Decision().Final)
}

func TestInfantileNodePublishesYesOnEmptySample(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(2) // every slot absent: the sample is empty
	nq := sampler.NewNodeQuery(1, 0)
	node := NewInfantileNode(0, nq, sampler.NewSource(3), opinion.Opinion[NoTx]{Tag: opinion.None})

	v, ok := node.Step(ns)
	require.True(ok)
	require.True(v.Yes) // no votes -> not a Yes majority -> publishes Yes
}

func TestInfantileNodePublishesYesOnExactTie(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(3)
	ns.Set(1, opinion.Vote[NoTx]{Yes: true})
	ns.Set(2, opinion.Vote[NoTx]{Yes: false})

	nq := sampler.NewNodeQuery(2, 0)
	node := NewInfantileNode(0, nq, sampler.NewSource(5), opinion.Opinion[NoTx]{Tag: opinion.None})

	v, ok := node.Step(ns)
	require.True(ok)
	require.True(v.Yes) // 1-1 tie -> not a Yes majority -> publishes Yes
}

func TestMasterWritesMinorityToPuppets(t *testing.T) {
	require := require.New(t)

	ns := NewNetworkState(6)
	// honest ids 0,1,2: two Yes, one No -> minority is No
	ns.Set(0, opinion.Vote[NoTx]{Yes: true})
	ns.Set(1, opinion.Vote[NoTx]{Yes: true})
	ns.Set(2, opinion.Vote[NoTx]{Yes: false})

	master := NewMasterOmniscientNode(3, []int{0, 1, 2}, []int{4, 5})
	puppetA := NewOmniscientPuppetNode(4, master)
	puppetB := NewOmniscientPuppetNode(5, master)

	_, write := master.Step(ns)
	require.False(write)

	for _, id := range []int{4, 5} {
		v, ok := ns.Get(id)
		require.True(ok)
		require.False(v.Yes)
	}

	v, ok := puppetA.Vote()
	require.True(ok)
	require.False(v.Yes)
	_, ok = puppetB.Vote()
	require.True(ok)
}

func TestRandomNodeNeverDecides(t *testing.T) {
	require := require.New(t)

	node := NewRandomNode(0, sampler.NewSource(99), opinion.Opinion[NoTx]{Tag: opinion.None})
	ns := NewNetworkState(1)
	for i := 0; i < 20; i++ {
		node.Step(ns)
		require.False(node.Decision().Final)
	}
}

func TestDecidedFraction(t *testing.T) {
	require := require.New(t)

	cfg := snowball.Configuration{QuorumSize: 1, SampleSize: 1, DecisionThreshold: 0}
	nq := sampler.NewNodeQuery(1, 0)
	solver := snowball.WithInitialOpinion(cfg, nq, opinion.Opinion[NoTx]{Tag: opinion.Yes})
	decidedNode := NewSnowballNode(0, solver, nq, sampler.NewSource(1))

	ns := NewNetworkState(2)
	ns.Set(1, opinion.Vote[NoTx]{Yes: true})
	decidedNode.Step(ns)
	require.True(decidedNode.Decision().Final)

	undecidedNode := NewRandomNode(1, sampler.NewSource(2), opinion.Opinion[NoTx]{Tag: opinion.None})

	decided, total := DecidedFraction([]*Node{decidedNode, undecidedNode})
	require.Equal(1, decided)
	require.Equal(2, total)
}
