package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-ai/datapilot-engine/pkg/config"
	"github.com/datapilot-ai/datapilot-engine/pkg/logging"
	"github.com/datapilot-ai/datapilot-engine/pkg/models"
	"github.com/datapilot-ai/datapilot-engine/pkg/prompts"
)

// timeRangeExample is shown to the user when the time window cannot be
// resolved.
const timeRangeExample = `between 2024-01-01 and 2024-01-31`

// Coordinator orchestrates resolve → generate → validate → fix → retry.
// One Generate call consumes one context and produces exactly one result.
type Coordinator struct {
	timeResolver   *TimeResolver
	schemaResolver *SchemaResolver
	generator      *StructuredGenerator
	validator      *Validator
	fixer          *Fixer
	examples       []prompts.Example

	maxAttempts    int
	maxFixAttempts int

	logger *zap.Logger
}

// NewCoordinator wires the pipeline components together. The two budgets are
// separate: maxFixAttempts is nested within the generation budget and never
// counts against it.
func NewCoordinator(
	timeResolver *TimeResolver,
	schemaResolver *SchemaResolver,
	generator *StructuredGenerator,
	validator *Validator,
	fixer *Fixer,
	cfg *config.GenerationConfig,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		timeResolver:   timeResolver,
		schemaResolver: schemaResolver,
		generator:      generator,
		validator:      validator,
		fixer:          fixer,
		maxAttempts:    cfg.MaxAttempts,
		maxFixAttempts: cfg.MaxFixAttempts,
		logger:         logger.Named("sql-coordinator"),
	}
}

// SetExamples supplies few-shot examples appended to every generation prompt.
func (c *Coordinator) SetExamples(examples []prompts.Example) {
	c.examples = examples
}

// Generate runs the full fast-path pipeline for one query. Dependency
// resolution happens exactly once, before any model call. Panics are caught
// at this level and converted into a failed result.
func (c *Coordinator) Generate(ctx context.Context, query string, snapshot *models.ContextSnapshot) (result *Result) {
	logger := c.logger.With(zap.String("invocation_id", uuid.NewString()))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("generation panicked", zap.Any("panic", r))
			result = &Result{
				Outcome:   OutcomeValidationFailed,
				Error:     "internal error during SQL generation",
				DebugInfo: []string{fmt.Sprintf("panic: %v", r)},
			}
		}
	}()

	if snapshot == nil {
		snapshot = &models.ContextSnapshot{}
	}
	sqlCtx := NewSQLContext(query, snapshot.Clarifications)

	window, err := c.timeResolver.Resolve(ctx, query, snapshot.TimeRange)
	if err != nil {
		logger.Info("time window unresolved", zap.Error(err))
		return &Result{
			Outcome:        OutcomeDependencyMissing,
			Error:          "the question does not specify a time range",
			NeedsUserInput: true,
			Suggestions: []string{
				fmt.Sprintf("Add an explicit date range, e.g. %q", timeRangeExample),
			},
		}
	}
	sqlCtx.Deps.SetTimeWindow(window)

	schema, err := c.schemaResolver.Resolve(ctx, snapshot)
	if err != nil {
		logger.Error("schema resolution failed", zap.Error(err))
		return &Result{
			Outcome: OutcomeDependencyMissing,
			Error:   fmt.Sprintf("schema unavailable: %s", logging.SanitizeError(err)),
		}
	}
	sqlCtx.Deps.SetSchema(schema)

	if readiness := sqlCtx.Deps.Readiness(); readiness != ReadinessReady {
		return &Result{
			Outcome: OutcomeDependencyMissing,
			Error:   fmt.Sprintf("dependencies unresolved: %s", readiness),
		}
	}

	return c.generateLoop(ctx, logger, sqlCtx, snapshot, schema, window)
}

func (c *Coordinator) generateLoop(
	ctx context.Context,
	logger *zap.Logger,
	sqlCtx *SQLContext,
	snapshot *models.ContextSnapshot,
	schema models.Schema,
	window *models.TimeRange,
) *Result {
	fixAttemptsUsed := 0

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		prompt := c.buildPrompt(sqlCtx, snapshot, schema, window)

		generated, err := c.generator.Generate(ctx, prompt, attempt)
		if err != nil {
			logger.Warn("generation attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			sqlCtx.AddAttempt(GenerationAttempt{Index: attempt, Error: err.Error()})
			continue
		}
		sqlCtx.AddCandidateSQL(generated.SQL)

		validation := c.validator.Validate(ctx, generated.SQL, schema)
		if validation.Valid {
			return c.successResult(generated, generated.SQL, attempt+1, validation, nil)
		}

		if validation.Fixable && fixAttemptsUsed < c.maxFixAttempts {
			fixAttemptsUsed++
			if result := c.tryFix(ctx, logger, generated, schema, validation, attempt); result != nil {
				return result
			}
		}

		sqlCtx.AddAttempt(GenerationAttempt{
			Index:     attempt,
			SQL:       generated.SQL,
			RawOutput: generated.RawOutput,
			Issues:    validation.IssueMessages(),
		})
	}

	return c.exhaustedResult(sqlCtx)
}

// tryFix applies one repair pass and re-validates from the first layer.
// Returns a success result if the fixed SQL survives, nil otherwise.
func (c *Coordinator) tryFix(
	ctx context.Context,
	logger *zap.Logger,
	generated *GeneratedSQL,
	schema models.Schema,
	validation *ValidationResult,
	attempt int,
) *Result {
	fixed, changed := c.fixer.Fix(generated.SQL, validation)
	if !changed {
		return nil
	}

	revalidation := c.validator.Validate(ctx, fixed, schema)
	if !revalidation.Valid {
		logger.Debug("auto-fix did not survive re-validation",
			zap.Int("attempt", attempt),
			zap.Strings("issues", revalidation.IssueMessages()))
		return nil
	}

	logger.Info("auto-fix succeeded", zap.Int("attempt", attempt))
	// Original issues are preserved for audit.
	return c.successResult(generated, fixed, attempt+1, revalidation, validation.IssueMessages())
}

func (c *Coordinator) buildPrompt(
	sqlCtx *SQLContext,
	snapshot *models.ContextSnapshot,
	schema models.Schema,
	window *models.TimeRange,
) string {
	var feedback []prompts.AttemptFeedback
	for _, attempt := range sqlCtx.Attempts() {
		fb := prompts.AttemptFeedback{SQL: attempt.SQL, Errors: attempt.Issues}
		if attempt.Error != "" {
			fb.Errors = append(fb.Errors, attempt.Error)
		}
		feedback = append(feedback, fb)
	}

	return prompts.BuildGenerationPrompt(prompts.GenerationInput{
		Query:            sqlCtx.Query,
		TimeRange:        window,
		Tables:           schema.Tables(),
		ColumnDetails:    schema,
		Clarifications:   sqlCtx.Clarifications,
		Examples:         c.examples,
		PreviousAttempts: feedback,
	})
}

func (c *Coordinator) successResult(
	generated *GeneratedSQL,
	sql string,
	attempts int,
	validation *ValidationResult,
	fixedFrom []string,
) *Result {
	result := &Result{
		Success: true,
		Outcome: OutcomeSuccess,
		SQL:     sql,
		Metadata: Metadata{
			Attempts:         attempts,
			Confidence:       generated.Confidence,
			Explanation:      generated.Explanation,
			ValidationDetail: validation.Summary(),
		},
	}
	if len(fixedFrom) > 0 {
		result.DebugInfo = append(result.DebugInfo, "auto-fixed; original issues:")
		result.DebugInfo = append(result.DebugInfo, fixedFrom...)
	}
	for _, warning := range validation.Warnings {
		result.DebugInfo = append(result.DebugInfo, warning)
	}
	return result
}

// exhaustedResult synthesizes the structured failure summary: per-attempt
// reasons concatenated, headlined by the most recent failure, with heuristic
// suggestions keyed off the failure text.
func (c *Coordinator) exhaustedResult(sqlCtx *SQLContext) *Result {
	attempts := sqlCtx.Attempts()

	headline := "no generation attempts were made"
	var reasons []string
	for _, attempt := range attempts {
		reason := attempt.Reason()
		if reason == "" {
			reason = "unknown failure"
		}
		reasons = append(reasons, fmt.Sprintf("attempt %d: %s", attempt.Index+1, reason))
	}
	if len(attempts) > 0 {
		headline = attempts[len(attempts)-1].Reason()
	}

	return &Result{
		Outcome:     OutcomeExhausted,
		Error:       fmt.Sprintf("%s: %s", apperrors.ErrAttemptsExhausted, headline),
		Suggestions: deriveSuggestions(reasons),
		Metadata: Metadata{
			Attempts: len(attempts),
		},
		DebugInfo: reasons,
	}
}

// deriveSuggestions keyword-matches failure reasons to remediation hints.
func deriveSuggestions(reasons []string) []string {
	joined := strings.ToLower(strings.Join(reasons, " "))

	var suggestions []string
	if strings.Contains(joined, "table") || strings.Contains(joined, "schema") {
		suggestions = append(suggestions, "Verify the schema was loaded and the table names match the datasource.")
	}
	if strings.Contains(joined, "paren") || strings.Contains(joined, "syntax") || strings.Contains(joined, "tokeniz") {
		suggestions = append(suggestions, "The model repeatedly produced malformed SQL; consider tuning the prompt.")
	}
	if strings.Contains(joined, "json") || strings.Contains(joined, "parse") {
		suggestions = append(suggestions, "The model did not return parseable JSON; consider adjusting the temperature.")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Rephrase the question or narrow it to a single metric.")
	}
	return suggestions
}
