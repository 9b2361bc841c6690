package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
		},
		DryRunFactory: func(ctx context.Context, dsn string, logger *zap.Logger) (datasource.DryRunExecutor, error) {
			return NewExecutor(ctx, dsn, logger)
		},
		SchemaExtractorFactory: func(ctx context.Context, dsn string, logger *zap.Logger) (datasource.SchemaExtractor, error) {
			return NewSchemaReader(ctx, dsn, logger)
		},
	})
}
