package datasource

import "context"

// DryRunExecutor validates SQL against a live database without executing it.
// Each implementation owns its connection and must be closed when done.
type DryRunExecutor interface {
	// ValidateQuery asks the database to plan the query without running it.
	// Returns nil if the database accepts the query.
	ValidateQuery(ctx context.Context, query string) error

	// ExplainQuery returns the database's plan for the query.
	ExplainQuery(ctx context.Context, query string) (*ExplainResult, error)

	// Close releases the database connection.
	Close() error
}

// SchemaExtractor extracts table and column names for schema resolution.
// Each implementation owns its connection and must be closed when done.
type SchemaExtractor interface {
	// GetTables returns all user table names in the database.
	GetTables(ctx context.Context) ([]string, error)

	// GetColumns returns column names for a specific table.
	GetColumns(ctx context.Context, table string) ([]string, error)

	// Close releases the database connection.
	Close() error
}

// ExplainResult contains the database's query plan output.
type ExplainResult struct {
	Plan []string `json:"plan"`
}
