// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func validDocument() string {
	return `{
		"consensus_settings": {"kind": "snow_ball", "quorum_size": 1, "sample_size": 10, "decision_threshold": 10},
		"distribution": {"yes": 0.5, "no": 0.3, "none": 0.2},
		"byzantine_settings": {
			"total_size": 100,
			"distribution": {"honest": 0.7, "infantile": 0.1, "random": 0.1, "omniscient": 0.1}
		},
		"wards": [
			{"kind": "time_to_finality", "threshold": 1000},
			{"kind": "converged", "ratio": 0.9}
		],
		"network_modifiers": [
			{"kind": "random_drop", "drop_rate": 0.05}
		],
		"simulation_style": {"kind": "sync"},
		"seed": 7
	}`
}

func TestLoadValidDocumentRoundTrips(t *testing.T) {
	require := require.New(t)

	s, err := Load([]byte(validDocument()))
	require.NoError(err)
	require.Equal("snow_ball", s.ConsensusSettings.Kind)
	require.Equal(100, s.ByzantineSettings.TotalSize)
	require.Len(s.Wards, 2)
	require.NotNil(s.Seed)
	require.Equal(uint64(7), *s.Seed)
}

func TestLoadRejectsUnknownConsensusKind(t *testing.T) {
	require := require.New(t)

	doc := `{"consensus_settings": {"kind": "bogus"},
		"distribution": {"yes": 1, "no": 0, "none": 0},
		"byzantine_settings": {"total_size": 1, "distribution": {"honest": 1}},
		"simulation_style": {"kind": "sync"}}`

	_, err := Load([]byte(doc))
	require.True(errors.Is(err, ErrUnknownConsensusKind))
}

func TestLoadRejectsBadDistributionSum(t *testing.T) {
	require := require.New(t)

	doc := `{"consensus_settings": {"kind": "snow_ball"},
		"distribution": {"yes": 0.5, "no": 0.2, "none": 0.2},
		"byzantine_settings": {"total_size": 1, "distribution": {"honest": 1}},
		"simulation_style": {"kind": "sync"}}`

	_, err := Load([]byte(doc))
	require.True(errors.Is(err, ErrDistributionSum))
}

func TestLoadRejectsBadByzantineDistributionSum(t *testing.T) {
	require := require.New(t)

	doc := `{"consensus_settings": {"kind": "claro"},
		"distribution": {"yes": 1, "no": 0, "none": 0},
		"byzantine_settings": {"total_size": 1, "distribution": {"honest": 0.5, "random": 0.1}},
		"simulation_style": {"kind": "sync"}}`

	_, err := Load([]byte(doc))
	require.True(errors.Is(err, ErrDistributionSum))
}

func TestLoadRejectsUnknownWardKind(t *testing.T) {
	require := require.New(t)

	doc := `{"consensus_settings": {"kind": "snow_ball"},
		"distribution": {"yes": 1, "no": 0, "none": 0},
		"byzantine_settings": {"total_size": 1, "distribution": {"honest": 1}},
		"wards": [{"kind": "bogus"}],
		"simulation_style": {"kind": "sync"}}`

	_, err := Load([]byte(doc))
	require.True(errors.Is(err, ErrUnknownWardKind))
}

func TestLoadRejectsConvergedRatioOutOfRange(t *testing.T) {
	require := require.New(t)

	doc := `{"consensus_settings": {"kind": "snow_ball"},
		"distribution": {"yes": 1, "no": 0, "none": 0},
		"byzantine_settings": {"total_size": 1, "distribution": {"honest": 1}},
		"wards": [{"kind": "converged", "ratio": 1.5}],
		"simulation_style": {"kind": "sync"}}`

	_, err := Load([]byte(doc))
	require.True(errors.Is(err, ErrRatioOutOfRange))
}

func TestLoadRejectsUnknownModifierKind(t *testing.T) {
	require := require.New(t)

	doc := `{"consensus_settings": {"kind": "snow_ball"},
		"distribution": {"yes": 1, "no": 0, "none": 0},
		"byzantine_settings": {"total_size": 1, "distribution": {"honest": 1}},
		"network_modifiers": [{"kind": "bogus"}],
		"simulation_style": {"kind": "sync"}}`

	_, err := Load([]byte(doc))
	require.True(errors.Is(err, ErrUnknownModifierKind))
}

func TestLoadRejectsUnknownSimulationStyle(t *testing.T) {
	require := require.New(t)

	doc := `{"consensus_settings": {"kind": "snow_ball"},
		"distribution": {"yes": 1, "no": 0, "none": 0},
		"byzantine_settings": {"total_size": 1, "distribution": {"honest": 1}},
		"simulation_style": {"kind": "bogus"}}`

	_, err := Load([]byte(doc))
	require.True(errors.Is(err, ErrUnknownSimulationStyle))
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	require := require.New(t)

	_, err := Load([]byte("{not json"))
	require.Error(err)
}
