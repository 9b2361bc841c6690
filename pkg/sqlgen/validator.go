package sqlgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/adapters/datasource"
	"github.com/datapilot-ai/datapilot-engine/pkg/logging"
	"github.com/datapilot-ai/datapilot-engine/pkg/models"
)

// Validation layer names as recorded in ValidationResult.Details.
const (
	LayerSyntax = "syntax"
	LayerSchema = "schema"
	LayerDryRun = "dry_run"
)

// Layer statuses.
const (
	LayerPassed  = "passed"
	LayerFailed  = "failed"
	LayerSkipped = "skipped"
)

// Issue is one validation finding.
type Issue struct {
	Layer   string `json:"layer"`
	Message string `json:"message"`
	Fixable bool   `json:"fixable"`
}

// TableFix is a wrong→right table rename suggested by fuzzy matching.
type TableFix struct {
	Wrong string `json:"wrong"`
	Right string `json:"right"`
}

// ValidationResult is built fresh per Validate call.
type ValidationResult struct {
	Valid    bool
	Fixable  bool
	Issues   []Issue
	Warnings []string

	// TableFixes and MissingClosers feed the auto-fixer.
	TableFixes     []TableFix
	MissingClosers int

	// Details records per-layer status: passed, failed or skipped.
	Details map[string]string
}

func (r *ValidationResult) addIssue(layer, message string, fixable bool) {
	r.Issues = append(r.Issues, Issue{Layer: layer, Message: message, Fixable: fixable})
}

// IssueMessages returns the issue texts in order.
func (r *ValidationResult) IssueMessages() []string {
	messages := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		messages[i] = issue.Message
	}
	return messages
}

// Summary renders per-layer statuses as a compact string.
func (r *ValidationResult) Summary() string {
	layers := []string{LayerSyntax, LayerSchema, LayerDryRun}
	parts := make([]string, 0, len(layers))
	for _, layer := range layers {
		if status, ok := r.Details[layer]; ok {
			parts = append(parts, layer+"="+status)
		}
	}
	return strings.Join(parts, " ")
}

// statementKeywords are rejected as whole words anywhere in the statement.
var statementKeywords = []string{"DROP", "DELETE", "TRUNCATE", "INSERT", "ALTER"}

var statementKeywordPatterns = compileKeywordPatterns(statementKeywords)

// tableRefPattern captures the identifier following FROM or JOIN.
var tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_.]*)`)

// ctePattern captures names defined by a WITH clause, so they are not treated
// as unknown tables at the schema layer.
var ctePattern = regexp.MustCompile(`(?i)(?:\bWITH\s+|,\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s+AS\s*\(`)

// Validator runs three layers in strict order, short-circuiting on the first
// failing layer: syntax, schema consistency, then a live dry-run.
type Validator struct {
	dryRun datasource.DryRunExecutor
	logger *zap.Logger
}

// NewValidator creates a validator. dryRun may be nil, in which case the
// third layer is skipped and recorded as skipped.
func NewValidator(dryRun datasource.DryRunExecutor, logger *zap.Logger) *Validator {
	return &Validator{
		dryRun: dryRun,
		logger: logger.Named("sql-validator"),
	}
}

// Validate checks the statement against the schema. Layers run in cost
// order; a failed layer stops the run.
func (v *Validator) Validate(ctx context.Context, sql string, schema models.Schema) *ValidationResult {
	result := &ValidationResult{
		Details: make(map[string]string),
	}

	v.checkSyntax(sql, result)
	if len(result.Issues) > 0 {
		result.Details[LayerSyntax] = LayerFailed
		result.Fixable = allFixable(result.Issues)
		v.logger.Debug("syntax layer failed",
			zap.String("sql", logging.TruncateSQL(sql)),
			zap.Strings("issues", result.IssueMessages()))
		return result
	}
	result.Details[LayerSyntax] = LayerPassed

	v.checkSchema(sql, schema, result)
	if len(result.Issues) > 0 {
		result.Details[LayerSchema] = LayerFailed
		result.Fixable = allFixable(result.Issues)
		v.logger.Debug("schema layer failed",
			zap.String("sql", logging.TruncateSQL(sql)),
			zap.Strings("issues", result.IssueMessages()))
		return result
	}
	result.Details[LayerSchema] = LayerPassed

	if v.dryRun == nil {
		result.Details[LayerDryRun] = LayerSkipped
		result.Warnings = append(result.Warnings, "dry-run skipped: no live datasource handle")
		result.Valid = true
		return result
	}

	if err := v.dryRun.ValidateQuery(ctx, sql); err != nil {
		result.Details[LayerDryRun] = LayerFailed
		// Execution errors indicate semantic problems beyond string rewriting.
		result.addIssue(LayerDryRun, fmt.Sprintf("dry-run failed: %s", logging.SanitizeError(err)), false)
		result.Fixable = false
		return result
	}

	result.Details[LayerDryRun] = LayerPassed
	result.Valid = true
	return result
}

// checkSyntax is Layer 1. Every failure it reports is fixable.
func (v *Validator) checkSyntax(sql string, result *ValidationResult) {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		result.addIssue(LayerSyntax, "statement must start with SELECT or WITH", true)
	}

	for _, kw := range statementKeywords {
		if statementKeywordPatterns[kw].MatchString(sql) {
			result.addIssue(LayerSyntax, fmt.Sprintf("forbidden keyword: %s", kw), true)
		}
	}

	parens := CheckParens(sql)
	if parens.UnmatchedCloserOffset >= 0 {
		result.addIssue(LayerSyntax,
			fmt.Sprintf("unmatched closing parenthesis at offset %d", parens.UnmatchedCloserOffset), true)
	}
	if parens.UnclosedOpeners > 0 {
		result.addIssue(LayerSyntax,
			fmt.Sprintf("unbalanced parentheses: %d unclosed", parens.UnclosedOpeners), true)
		result.MissingClosers = parens.UnclosedOpeners
	}

	if _, err := Tokenize(sql); err != nil {
		result.addIssue(LayerSyntax, fmt.Sprintf("tokenizer: %v", err), true)
	}
}

// checkSchema is Layer 2. It validates table names only; columns are left to
// the dry-run layer.
func (v *Validator) checkSchema(sql string, schema models.Schema, result *ValidationResult) {
	tables := ExtractTables(sql)
	if len(tables) == 0 {
		return
	}

	known := schema.Tables()
	knownSet := make(map[string]bool, len(known))
	for _, t := range known {
		knownSet[strings.ToLower(t)] = true
	}
	cteNames := extractCTENames(sql)

	for _, table := range tables {
		if knownSet[strings.ToLower(table)] || cteNames[strings.ToLower(table)] {
			continue
		}
		if match, ok := BestTableMatch(table, known); ok {
			result.addIssue(LayerSchema,
				fmt.Sprintf("unknown table %q, did you mean %q", table, match), true)
			result.TableFixes = append(result.TableFixes, TableFix{Wrong: table, Right: match})
			continue
		}
		result.addIssue(LayerSchema, fmt.Sprintf("unknown table %q", table), false)
	}
}

// ExtractTables returns deduplicated table names referenced after FROM/JOIN,
// in first-appearance order.
func ExtractTables(sql string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(sql, -1)
	seen := make(map[string]bool, len(matches))
	var tables []string
	for _, m := range matches {
		name := m[1]
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		tables = append(tables, name)
	}
	return tables
}

func extractCTENames(sql string) map[string]bool {
	names := make(map[string]bool)
	for _, m := range ctePattern.FindAllStringSubmatch(sql, -1) {
		names[strings.ToLower(m[1])] = true
	}
	return names
}

func allFixable(issues []Issue) bool {
	for _, issue := range issues {
		if !issue.Fixable {
			return false
		}
	}
	return len(issues) > 0
}
