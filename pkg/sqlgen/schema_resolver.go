package sqlgen

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
	"github.com/datapilot-ai/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-ai/datapilot-engine/pkg/models"
	"github.com/datapilot-ai/datapilot-engine/pkg/retry"
)

// SchemaLookup is the external capability that maps candidate table names to
// their columns. An empty candidate list means "everything you have".
type SchemaLookup interface {
	LookupSchema(ctx context.Context, tables []string) (models.Schema, error)
}

// SchemaResolver resolves the schema dependency from the context snapshot.
// Failure here is an environment problem and routes to hard failure, never to
// a clarification request.
type SchemaResolver struct {
	lookup SchemaLookup
	logger *zap.Logger
}

// NewSchemaResolver creates a resolver over the given lookup capability.
func NewSchemaResolver(lookup SchemaLookup, logger *zap.Logger) *SchemaResolver {
	return &SchemaResolver{
		lookup: lookup,
		logger: logger.Named("schema-resolver"),
	}
}

// Resolve returns the schema for this invocation. A schema already present in
// the snapshot wins. Otherwise candidate tables come from the snapshot in
// priority order; an empty candidate list still attempts resolution.
func (r *SchemaResolver) Resolve(ctx context.Context, snapshot *models.ContextSnapshot) (models.Schema, error) {
	if snapshot != nil && len(snapshot.Schema) > 0 {
		r.logger.Debug("using schema from snapshot", zap.Int("tables", len(snapshot.Schema)))
		return snapshot.Schema, nil
	}

	if r.lookup == nil {
		return nil, fmt.Errorf("%w: no schema lookup configured", apperrors.ErrSchemaUnavailable)
	}

	var hints []string
	if snapshot != nil {
		hints = snapshot.CandidateTables()
	}
	if len(hints) == 0 {
		r.logger.Warn("no candidate tables in context; attempting full schema lookup")
	}

	schema, err := r.lookup.LookupSchema(ctx, hints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSchemaUnavailable, err)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: lookup returned no tables", apperrors.ErrSchemaUnavailable)
	}

	r.logger.Debug("resolved schema", zap.Strings("tables", schema.Tables()))
	return schema, nil
}

// extractorLookup adapts a datasource schema extractor into a SchemaLookup.
type extractorLookup struct {
	extractor datasource.SchemaExtractor
}

// NewExtractorLookup wraps a datasource schema extractor as a SchemaLookup.
// With hints it fetches columns per hinted table; without hints it walks the
// whole datasource.
func NewExtractorLookup(extractor datasource.SchemaExtractor) SchemaLookup {
	return &extractorLookup{extractor: extractor}
}

// LookupSchema retries transient datasource errors; a schema lookup sits on
// the live connection and fails for the same reasons any query does.
func (l *extractorLookup) LookupSchema(ctx context.Context, tables []string) (models.Schema, error) {
	return retry.DoWithResult(ctx, retry.DefaultConfig(), func() (models.Schema, error) {
		if len(tables) == 0 {
			return datasource.LoadSchema(ctx, l.extractor)
		}

		schema := make(models.Schema, len(tables))
		for _, table := range tables {
			columns, err := l.extractor.GetColumns(ctx, table)
			if err != nil {
				return nil, fmt.Errorf("failed to look up columns for %s: %w", table, err)
			}
			if len(columns) == 0 {
				continue
			}
			schema[table] = columns
		}
		return schema, nil
	})
}
