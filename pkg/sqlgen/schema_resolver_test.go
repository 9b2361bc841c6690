package sqlgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-ai/datapilot-engine/pkg/models"
)

type fakeSchemaLookup struct {
	schema    models.Schema
	err       error
	calls     int
	lastHints []string
}

func (f *fakeSchemaLookup) LookupSchema(ctx context.Context, tables []string) (models.Schema, error) {
	f.calls++
	f.lastHints = tables
	return f.schema, f.err
}

func TestSchemaResolver_SnapshotSchemaWins(t *testing.T) {
	lookup := &fakeSchemaLookup{}
	resolver := NewSchemaResolver(lookup, zap.NewNop())

	snapshot := &models.ContextSnapshot{
		Schema: models.Schema{"sales": {"id", "amount"}},
	}
	schema, err := resolver.Resolve(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Schema, schema)
	assert.Zero(t, lookup.calls)
}

func TestSchemaResolver_HintPriority(t *testing.T) {
	lookup := &fakeSchemaLookup{schema: models.Schema{"sales": {"id"}}}
	resolver := NewSchemaResolver(lookup, zap.NewNop())

	snapshot := &models.ContextSnapshot{
		SelectedTables: []string{"sales"},
		Tables:         []string{"ignored_when_selected_present"},
	}
	_, err := resolver.Resolve(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, lookup.lastHints)
}

func TestSchemaResolver_EmptyHintsStillResolves(t *testing.T) {
	lookup := &fakeSchemaLookup{schema: models.Schema{"sales": {"id"}}}
	resolver := NewSchemaResolver(lookup, zap.NewNop())

	schema, err := resolver.Resolve(context.Background(), &models.ContextSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, 1, lookup.calls)
	assert.Empty(t, lookup.lastHints)
	assert.True(t, schema.HasTable("sales"))
}

func TestSchemaResolver_LookupFailureIsHard(t *testing.T) {
	lookup := &fakeSchemaLookup{err: errors.New("connection refused")}
	resolver := NewSchemaResolver(lookup, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), &models.ContextSnapshot{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSchemaUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSchemaResolver_EmptyResultIsFailure(t *testing.T) {
	lookup := &fakeSchemaLookup{schema: models.Schema{}}
	resolver := NewSchemaResolver(lookup, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), &models.ContextSnapshot{})
	assert.ErrorIs(t, err, apperrors.ErrSchemaUnavailable)
}

type fakeExtractor struct {
	tables  []string
	columns map[string][]string
}

func (f *fakeExtractor) GetTables(ctx context.Context) ([]string, error) { return f.tables, nil }
func (f *fakeExtractor) GetColumns(ctx context.Context, table string) ([]string, error) {
	return f.columns[table], nil
}
func (f *fakeExtractor) Close() error { return nil }

func TestExtractorLookup(t *testing.T) {
	lookup := NewExtractorLookup(&fakeExtractor{
		tables: []string{"sales", "users"},
		columns: map[string][]string{
			"sales": {"id", "amount"},
			"users": {"id", "email"},
		},
	})

	schema, err := lookup.LookupSchema(context.Background(), []string{"sales"})
	require.NoError(t, err)
	assert.Equal(t, models.Schema{"sales": {"id", "amount"}}, schema)

	full, err := lookup.LookupSchema(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, full, 2)
}
