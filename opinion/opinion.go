// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package opinion implements the tri-valued opinion algebra shared by the
// Snowball and Claro solvers: an internal Opinion, the Vote it publishes to
// the network, and the Decision wrapper that marks an opinion final.
package opinion

import "fmt"

// Tag is the tri-valued internal state of a node's opinion.
type Tag uint8

const (
	None Tag = iota
	Yes
	No
)

func (t Tag) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "none"
	}
}

// Opinion carries a Tag plus an opaque transaction payload. The simulation
// runs over a unit payload — consensus is over the vote itself, not Tx's
// content — but the field is kept generic so solvers can be reused for
// payload-bearing consensus.
type Opinion[Tx any] struct {
	Tag Tag
	Tx  Tx
}

// Flip inverts Yes<->No; None is left unchanged.
func (o Opinion[Tx]) Flip() Opinion[Tx] {
	switch o.Tag {
	case Yes:
		o.Tag = No
	case No:
		o.Tag = Yes
	}
	return o
}

func (o Opinion[Tx]) String() string {
	return o.Tag.String()
}

// Vote is the public, network-visible projection of an Opinion: Yes or No.
// A None opinion publishes no vote.
type Vote[Tx any] struct {
	Yes bool
	Tx  Tx
}

// ToVote projects an Opinion onto its published Vote. A node never
// publishes None as a vote.
func ToVote[Tx any](o Opinion[Tx]) (Vote[Tx], bool) {
	switch o.Tag {
	case Yes:
		return Vote[Tx]{Yes: true, Tx: o.Tx}, true
	case No:
		return Vote[Tx]{Yes: false, Tx: o.Tx}, true
	default:
		return Vote[Tx]{}, false
	}
}

// ToOpinion lifts a published Vote back to an Opinion.
func ToOpinion[Tx any](v Vote[Tx]) Opinion[Tx] {
	if v.Yes {
		return Opinion[Tx]{Tag: Yes, Tx: v.Tx}
	}
	return Opinion[Tx]{Tag: No, Tx: v.Tx}
}

// Decision wraps an Opinion with a finality flag. Once Decided, the inner
// opinion must not change.
type Decision[Tx any] struct {
	Opinion Opinion[Tx]
	Final   bool
}

// Undecided wraps o as a not-yet-final decision.
func Undecided[Tx any](o Opinion[Tx]) Decision[Tx] {
	return Decision[Tx]{Opinion: o}
}

// Decided wraps o as a final decision.
func Decided[Tx any](o Opinion[Tx]) Decision[Tx] {
	return Decision[Tx]{Opinion: o, Final: true}
}

// Vote derives the published vote from the wrapped opinion, regardless of
// finality.
func (d Decision[Tx]) Vote() (Vote[Tx], bool) {
	return ToVote(d.Opinion)
}

func (d Decision[Tx]) String() string {
	if d.Final {
		return fmt.Sprintf("decided(%s)", d.Opinion)
	}
	return fmt.Sprintf("undecided(%s)", d.Opinion)
}
