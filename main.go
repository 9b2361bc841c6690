package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
	_ "github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource/mssql"
	_ "github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource/postgres"
	"github.com/datapilot-ai/datapilot-engine/pkg/config"
	"github.com/datapilot-ai/datapilot-engine/pkg/llm"
	"github.com/datapilot-ai/datapilot-engine/pkg/logging"
	"github.com/datapilot-ai/datapilot-engine/pkg/mcp"
	"github.com/datapilot-ai/datapilot-engine/pkg/mcp/tools"
	"github.com/datapilot-ai/datapilot-engine/pkg/models"
	"github.com/datapilot-ai/datapilot-engine/pkg/prompts"
	"github.com/datapilot-ai/datapilot-engine/pkg/sqlgen"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	query := flag.String("query", "", "natural language question to translate into SQL")
	contextPath := flag.String("context", "", "path to a JSON context snapshot file")
	examplesPath := flag.String("examples", "", "path to a YAML few-shot examples file")
	serveMCP := flag.Bool("mcp", false, "serve the pipeline as MCP tools over stdio")
	flag.Parse()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("datasource_type", cfg.Datasource.Type),
		zap.String("datasource_dsn", logging.SanitizeConnectionString(cfg.Datasource.DSN)))

	hybrid, cleanup, err := buildPipeline(cfg, logger, *examplesPath)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}
	defer cleanup()

	if *serveMCP {
		server := mcp.NewServer("datapilot-engine", cfg.Version, logger)
		tools.RegisterHealthTool(server.MCP(), cfg.Version)
		tools.RegisterGenerateSQLTool(server.MCP(), &tools.GenerateToolDeps{
			Hybrid: hybrid,
			Logger: logger,
		})
		if err := server.ServeStdio(); err != nil {
			logger.Fatal("mcp server failed", zap.Error(err))
		}
		return
	}

	if *query == "" {
		flag.Usage()
		os.Exit(2)
	}

	snapshot, err := loadSnapshot(*contextPath, cfg)
	if err != nil {
		logger.Fatal("failed to load context snapshot", zap.Error(err))
	}

	result := hybrid.Generate(context.Background(), *query, snapshot, cfg.Fallback.Enabled)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("failed to marshal result", zap.Error(err))
	}
	fmt.Println(string(output))

	if !result.Success {
		os.Exit(1)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildPipeline wires the generation pipeline from configuration. The
// returned cleanup closes any datasource handles that were opened.
func buildPipeline(cfg *config.Config, logger *zap.Logger, examplesPath string) (*sqlgen.HybridGenerator, func(), error) {
	client, err := llm.NewFromConfig(&cfg.LLM, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	var lookup sqlgen.SchemaLookup
	var dryRun datasource.DryRunExecutor
	if cfg.Datasource.DSN != "" {
		ctx := context.Background()

		extractor, err := datasource.NewSchemaExtractor(ctx, cfg.Datasource.Type, cfg.Datasource.DSN, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create schema extractor: %w", err)
		}
		closers = append(closers, extractor.Close)
		lookup = sqlgen.NewExtractorLookup(extractor)

		executor, err := datasource.NewDryRunExecutor(ctx, cfg.Datasource.Type, cfg.Datasource.DSN, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create dry-run executor: %w", err)
		}
		closers = append(closers, executor.Close)
		dryRun = executor
	} else {
		logger.Warn("no datasource configured; schema must come from the context and dry-run is skipped")
	}

	coordinator := sqlgen.NewCoordinator(
		sqlgen.NewTimeResolver(sqlgen.NewLLMTimeInference(client, logger), logger),
		sqlgen.NewSchemaResolver(lookup, logger),
		sqlgen.NewStructuredGenerator(client, &cfg.Generation, logger),
		sqlgen.NewValidator(dryRun, logger),
		sqlgen.NewFixer(logger),
		&cfg.Generation,
		logger,
	)

	if examplesPath != "" {
		examples, err := prompts.LoadExamples(examplesPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to load examples: %w", err)
		}
		coordinator.SetExamples(examples)
	}

	// The iterative fallback is an external collaborator; without one wired,
	// escalation returns the fast-path failure.
	return sqlgen.NewHybridGenerator(coordinator, nil, logger), cleanup, nil
}

// loadSnapshot reads the context snapshot file and fills in the datasource
// from configuration when the file does not carry one.
func loadSnapshot(path string, cfg *config.Config) (*models.ContextSnapshot, error) {
	snapshot := &models.ContextSnapshot{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot file: %w", err)
		}
		if err := json.Unmarshal(data, snapshot); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
		}
	}

	if snapshot.Datasource == nil && cfg.Datasource.DSN != "" {
		id, err := cfg.Datasource.DatasourceID()
		if err != nil {
			return nil, err
		}
		snapshot.Datasource = &models.DatasourceConfig{
			ID:   id,
			Type: cfg.Datasource.Type,
			DSN:  cfg.Datasource.DSN,
		}
	}

	return snapshot, nil
}
