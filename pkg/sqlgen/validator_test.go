package sqlgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
	"github.com/datapilot-ai/datapilot-engine/pkg/models"
)

type fakeDryRun struct {
	err   error
	calls int
}

func (f *fakeDryRun) ValidateQuery(ctx context.Context, query string) error {
	f.calls++
	return f.err
}

func (f *fakeDryRun) ExplainQuery(ctx context.Context, query string) (*datasource.ExplainResult, error) {
	return &datasource.ExplainResult{}, f.err
}

func (f *fakeDryRun) Close() error { return nil }

var testSchema = models.Schema{
	"sales": {"id", "amount", "sale_date"},
	"users": {"id", "email"},
}

func TestValidate_Valid(t *testing.T) {
	v := NewValidator(nil, zap.NewNop())
	result := v.Validate(context.Background(), "SELECT SUM(amount) FROM sales", testSchema)

	assert.True(t, result.Valid)
	assert.Equal(t, LayerPassed, result.Details[LayerSyntax])
	assert.Equal(t, LayerPassed, result.Details[LayerSchema])
	assert.Equal(t, LayerSkipped, result.Details[LayerDryRun])
	assert.NotEmpty(t, result.Warnings, "skipped dry-run is recorded as a warning")
}

func TestValidate_ForbiddenKeywordsWholeWord(t *testing.T) {
	v := NewValidator(nil, zap.NewNop())

	for _, kw := range []string{"DROP", "DELETE", "TRUNCATE", "INSERT", "ALTER"} {
		sql := "SELECT 1 FROM sales; " + kw + " TABLE sales"
		result := v.Validate(context.Background(), sql, testSchema)
		assert.False(t, result.Valid, kw)
		assert.Equal(t, LayerFailed, result.Details[LayerSyntax], kw)
	}

	// Substrings are not whole words.
	result := v.Validate(context.Background(), "SELECT dropped, inserted_at FROM sales", testSchema)
	assert.Equal(t, LayerPassed, result.Details[LayerSyntax])
}

func TestValidate_SyntaxLayerShortCircuits(t *testing.T) {
	dryRun := &fakeDryRun{}
	v := NewValidator(dryRun, zap.NewNop())

	result := v.Validate(context.Background(), "SELECT SUM(amount FROM nonexistent", testSchema)

	assert.False(t, result.Valid)
	assert.True(t, result.Fixable, "all syntax-layer failures are fixable")
	assert.Equal(t, 1, result.MissingClosers)
	_, schemaRan := result.Details[LayerSchema]
	assert.False(t, schemaRan, "schema layer must not run after syntax failure")
	assert.Zero(t, dryRun.calls)
}

func TestValidate_SchemaLayerFuzzyMatch(t *testing.T) {
	v := NewValidator(nil, zap.NewNop())

	result := v.Validate(context.Background(), "SELECT SUM(amount) FROM sale", testSchema)

	assert.False(t, result.Valid)
	assert.True(t, result.Fixable)
	require.Len(t, result.TableFixes, 1)
	assert.Equal(t, TableFix{Wrong: "sale", Right: "sales"}, result.TableFixes[0])
}

func TestValidate_SchemaLayerUnknownTableUnfixable(t *testing.T) {
	v := NewValidator(nil, zap.NewNop())

	result := v.Validate(context.Background(), "SELECT * FROM weather_stations", testSchema)

	assert.False(t, result.Valid)
	assert.False(t, result.Fixable)
	assert.Empty(t, result.TableFixes)
}

func TestValidate_CTENamesNotTreatedAsTables(t *testing.T) {
	v := NewValidator(nil, zap.NewNop())

	sql := "WITH monthly AS (SELECT amount FROM sales) SELECT SUM(amount) FROM monthly"
	result := v.Validate(context.Background(), sql, testSchema)

	assert.True(t, result.Valid)
}

func TestValidate_DryRunPasses(t *testing.T) {
	dryRun := &fakeDryRun{}
	v := NewValidator(dryRun, zap.NewNop())

	result := v.Validate(context.Background(), "SELECT id FROM users", testSchema)

	assert.True(t, result.Valid)
	assert.Equal(t, LayerPassed, result.Details[LayerDryRun])
	assert.Equal(t, 1, dryRun.calls)
}

func TestValidate_DryRunFailureUnfixable(t *testing.T) {
	dryRun := &fakeDryRun{err: errors.New(`column "amont" does not exist`)}
	v := NewValidator(dryRun, zap.NewNop())

	result := v.Validate(context.Background(), "SELECT amont FROM sales", testSchema)

	assert.False(t, result.Valid)
	assert.False(t, result.Fixable)
	assert.Equal(t, LayerFailed, result.Details[LayerDryRun])
}

func TestExtractTables(t *testing.T) {
	sql := "SELECT * FROM sales s JOIN users u ON s.user_id = u.id JOIN sales dup ON 1=1"
	assert.Equal(t, []string{"sales", "users"}, ExtractTables(sql))
}
