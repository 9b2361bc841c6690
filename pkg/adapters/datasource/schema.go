package datasource

import (
	"context"
	"fmt"

	"github.com/datapilot-ai/datapilot-engine/pkg/models"
)

// LoadSchema walks the extractor's tables and columns into a schema map.
func LoadSchema(ctx context.Context, extractor SchemaExtractor) (models.Schema, error) {
	tables, err := extractor.GetTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	schema := make(models.Schema, len(tables))
	for _, table := range tables {
		columns, err := extractor.GetColumns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to list columns for %s: %w", table, err)
		}
		schema[table] = columns
	}
	return schema, nil
}
