package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
	"github.com/datapilot-ai/datapilot-engine/pkg/logging"
)

// Executor validates queries against SQL Server using SHOWPLAN_ALL, which
// compiles the query and returns the plan without executing it.
type Executor struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExecutor connects to SQL Server and returns a dry-run executor.
func NewExecutor(ctx context.Context, dsn string, logger *zap.Logger) (*Executor, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlserver: %w", err)
	}
	return NewExecutorWithDB(db, logger), nil
}

// NewExecutorWithDB wraps an existing database handle. Used in tests.
func NewExecutorWithDB(db *sql.DB, logger *zap.Logger) *Executor {
	return &Executor{
		db:     db,
		logger: logger.Named("mssql-dryrun"),
	}
}

// stripTrailingSemicolons drops trailing statement terminators so a
// semicolon-suffixed query cannot smuggle a second statement.
func stripTrailingSemicolons(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), "; \t\n")
}

// ValidateQuery compiles the query under SHOWPLAN_ALL without executing it.
// SHOWPLAN is per-session, so all three statements run on one connection.
func (e *Executor) ValidateQuery(ctx context.Context, query string) error {
	_, err := e.explain(ctx, query)
	if err != nil {
		e.logger.Debug("dry run rejected query",
			zap.String("sql", logging.TruncateSQL(query)),
			zap.Error(err))
	}
	return err
}

// ExplainQuery returns the SHOWPLAN_ALL statement text column per plan row.
func (e *Executor) ExplainQuery(ctx context.Context, query string) (*datasource.ExplainResult, error) {
	plan, err := e.explain(ctx, query)
	if err != nil {
		return nil, err
	}
	return &datasource.ExplainResult{Plan: plan}, nil
}

func (e *Executor) explain(ctx context.Context, query string) ([]string, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET SHOWPLAN_ALL ON"); err != nil {
		return nil, fmt.Errorf("failed to enable showplan: %w", err)
	}
	defer conn.ExecContext(ctx, "SET SHOWPLAN_ALL OFF")

	rows, err := conn.QueryContext(ctx, stripTrailingSemicolons(query))
	if err != nil {
		return nil, fmt.Errorf("dry run failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read plan columns: %w", err)
	}

	var plan []string
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		// First column of SHOWPLAN_ALL output is the statement text.
		if s, ok := values[0].(string); ok {
			plan = append(plan, s)
		} else if b, ok := values[0].([]byte); ok {
			plan = append(plan, string(b))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return plan, nil
}

// Close releases the database handle.
func (e *Executor) Close() error {
	return e.db.Close()
}

var _ datasource.DryRunExecutor = (*Executor)(nil)
