package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFromArgs(t *testing.T) {
	snapshot, err := snapshotFromArgs(map[string]any{
		"context": map[string]any{
			"time_range": map[string]any{
				"start_date": "2024-01-01",
				"end_date":   "2024-01-31",
			},
			"schema": map[string]any{
				"sales": []any{"id", "amount"},
			},
			"selected_tables": []any{"sales"},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, snapshot.TimeRange)
	assert.Equal(t, "2024-01-01", snapshot.TimeRange.Start)
	assert.Equal(t, []string{"id", "amount"}, snapshot.Schema["sales"])
	assert.Equal(t, []string{"sales"}, snapshot.SelectedTables)
}

func TestSnapshotFromArgs_MissingContext(t *testing.T) {
	snapshot, err := snapshotFromArgs(map[string]any{"query": "count users"})
	require.NoError(t, err)
	assert.NotNil(t, snapshot)
	assert.False(t, snapshot.HasTimeIndicator())
}

func TestSnapshotFromArgs_NilArgs(t *testing.T) {
	snapshot, err := snapshotFromArgs(nil)
	require.NoError(t, err)
	assert.NotNil(t, snapshot)
}
