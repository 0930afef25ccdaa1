// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	require := require.New(t)

	for _, f := range []Format{FormatJSON, FormatCSV, FormatParquet} {
		parsed, err := ParseFormat(f.String())
		require.NoError(err)
		require.Equal(f, parsed)
	}
}

func TestParseFormatUnknown(t *testing.T) {
	require := require.New(t)

	_, err := ParseFormat("yaml")
	require.ErrorIs(err, ErrUnknownFormat)
}

func TestJSONWriterProducesOneRecordPerLine(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	w, err := NewWriter(FormatJSON, &buf)
	require.NoError(err)

	records := []Record{
		{ID: 1, Iteration: 0, Round: 0, Vote: 1, Type: "snow_ball"},
		{ID: 2, Iteration: 0, Round: 0, Vote: 2, Type: "claro"},
	}
	require.NoError(w.Write(records))
	require.NoError(w.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(lines, 2)

	var decoded Record
	require.NoError(json.Unmarshal([]byte(lines[0]), &decoded))
	require.Equal(uint64(1), decoded.ID)
}

func TestCSVWriterWritesHeaderOnceThenRows(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	w, err := NewWriter(FormatCSV, &buf)
	require.NoError(err)

	require.NoError(w.Write([]Record{{ID: 1, Type: "snow_ball", State: map[string]uint64{"consecutive_success": 3}}}))
	require.NoError(w.Write([]Record{{ID: 2, Type: "claro"}}))
	require.NoError(w.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(lines, 3)
	require.Equal("id,iteration,round,vote,type,state", lines[0])
}

func TestNewWriterParquetUnsupported(t *testing.T) {
	require := require.New(t)

	_, err := NewWriter(FormatParquet, &bytes.Buffer{})
	require.ErrorIs(err, ErrParquetUnsupported)
}
