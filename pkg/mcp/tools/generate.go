package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/models"
	"github.com/datapilot-ai/datapilot-engine/pkg/sqlgen"
)

// GenerateToolDeps contains dependencies for the SQL generation tool.
type GenerateToolDeps struct {
	Hybrid *sqlgen.HybridGenerator
	Logger *zap.Logger
}

// RegisterGenerateSQLTool exposes the hybrid generation pipeline as an MCP
// tool. The tool is a thin translation layer; routing and validation all
// happen in the pipeline.
func RegisterGenerateSQLTool(s *server.MCPServer, deps *GenerateToolDeps) {
	tool := mcp.NewTool(
		"generate_sql",
		mcp.WithDescription(
			"Translate a natural language analytic question into a validated SQL query. "+
				"Accepts an optional execution context (time range, schema, datasource); "+
				"missing context is resolved or escalated to the iterative fallback.",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("The natural language question to translate"),
		),
		mcp.WithObject(
			"context",
			mcp.Description("Execution context snapshot: time_range, schema, selected_tables, datasource"),
		),
		mcp.WithBoolean(
			"allow_fallback",
			mcp.Description("Whether the iterative fallback may be consulted (default: true)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		args, _ := req.Params.Arguments.(map[string]any)
		snapshot, err := snapshotFromArgs(args)
		if err != nil {
			return nil, err
		}

		allowFallback := true
		if v, ok := args["allow_fallback"].(bool); ok {
			allowFallback = v
		}

		deps.Logger.Info("generate_sql tool invoked",
			zap.Int("query_len", len(query)),
			zap.Bool("allow_fallback", allowFallback))

		result := deps.Hybrid.Generate(ctx, query, snapshot, allowFallback)

		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal generation result: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	})
}

// snapshotFromArgs decodes the optional "context" argument into a snapshot.
// A missing or empty context yields an empty snapshot, not an error.
func snapshotFromArgs(args map[string]any) (*models.ContextSnapshot, error) {
	raw, ok := args["context"].(map[string]any)
	if !ok || len(raw) == 0 {
		return &models.ContextSnapshot{}, nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid context argument: %w", err)
	}

	var snapshot models.ContextSnapshot
	if err := json.Unmarshal(encoded, &snapshot); err != nil {
		return nil, fmt.Errorf("invalid context argument: %w", err)
	}
	return &snapshot, nil
}
