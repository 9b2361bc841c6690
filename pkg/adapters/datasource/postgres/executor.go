package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
	"github.com/datapilot-ai/datapilot-engine/pkg/logging"
)

// Executor validates queries against PostgreSQL by asking the planner to
// explain them. EXPLAIN without ANALYZE plans the query but never runs it.
type Executor struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewExecutor connects to PostgreSQL and returns a dry-run executor.
func NewExecutor(ctx context.Context, dsn string, logger *zap.Logger) (*Executor, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Executor{
		pool:   pool,
		logger: logger.Named("postgres-dryrun"),
	}, nil
}

// wrapExplain prepends EXPLAIN to a query, stripping any trailing semicolon
// so multi-statement input cannot sneak past the planner.
func wrapExplain(query string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(query), "; \t\n")
	return "EXPLAIN " + trimmed
}

// ValidateQuery plans the query without executing it.
func (e *Executor) ValidateQuery(ctx context.Context, query string) error {
	rows, err := e.pool.Query(ctx, wrapExplain(query))
	if err != nil {
		e.logger.Debug("dry run rejected query",
			zap.String("sql", logging.TruncateSQL(query)),
			zap.Error(err))
		return fmt.Errorf("dry run failed: %w", err)
	}
	rows.Close()
	return rows.Err()
}

// ExplainQuery returns the planner's output line by line.
func (e *Executor) ExplainQuery(ctx context.Context, query string) (*datasource.ExplainResult, error) {
	rows, err := e.pool.Query(ctx, wrapExplain(query))
	if err != nil {
		return nil, fmt.Errorf("explain failed: %w", err)
	}
	defer rows.Close()

	var plan []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plan = append(plan, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	return &datasource.ExplainResult{Plan: plan}, nil
}

// Close releases the connection pool.
func (e *Executor) Close() error {
	e.pool.Close()
	return nil
}

var _ datasource.DryRunExecutor = (*Executor)(nil)
