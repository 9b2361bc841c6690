package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
)

// SchemaReader lists user tables and columns from INFORMATION_SCHEMA.
type SchemaReader struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSchemaReader connects to SQL Server and returns a schema extractor.
func NewSchemaReader(ctx context.Context, dsn string, logger *zap.Logger) (*SchemaReader, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlserver: %w", err)
	}
	return NewSchemaReaderWithDB(db, logger), nil
}

// NewSchemaReaderWithDB wraps an existing database handle. Used in tests.
func NewSchemaReaderWithDB(db *sql.DB, logger *zap.Logger) *SchemaReader {
	return &SchemaReader{
		db:     db,
		logger: logger.Named("mssql-schema"),
	}
}

// GetTables returns all base tables outside the system schemas.
func (r *SchemaReader) GetTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		  AND TABLE_SCHEMA NOT IN ('sys', 'INFORMATION_SCHEMA')
		ORDER BY TABLE_NAME`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetColumns returns column names for a table in ordinal order.
func (r *SchemaReader) GetColumns(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = @p1
		ORDER BY ORDINAL_POSITION`

	rows, err := r.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// Close releases the database handle.
func (r *SchemaReader) Close() error {
	return r.db.Close()
}

var _ datasource.SchemaExtractor = (*SchemaReader)(nil)
