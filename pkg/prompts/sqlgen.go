package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datapilot-ai/datapilot-engine/pkg/models"
)

// SQLGenerationSystemPrompt instructs the model to act as a SQL analyst and
// respond with structured JSON only.
const SQLGenerationSystemPrompt = `You are an expert SQL analyst. Your task is to translate a natural language question into a single read-only SQL query against the schema provided.

Rules:
- Generate exactly one SELECT statement (CTEs with WITH are allowed).
- Use only the tables and columns listed in the schema.
- Never use DDL or DML statements (INSERT, UPDATE, DELETE, DROP, TRUNCATE, ALTER).
- Apply the given time range as a filter when the question is time-scoped.

Respond with a single JSON object and nothing else.`

// AttemptFeedback carries what a prior generation attempt produced and why it
// was rejected, so the next prompt can steer away from the same mistake.
type AttemptFeedback struct {
	SQL    string
	Errors []string
}

// GenerationInput is everything the generation prompt is built from.
type GenerationInput struct {
	Query          string
	TimeRange      *models.TimeRange
	Tables         []string
	ColumnDetails  map[string][]string
	Clarifications map[string]string
	Examples       []Example

	// PreviousAttempts is empty on the first attempt. When non-empty the
	// prompt appends the failure feedback and a simplify instruction.
	PreviousAttempts []AttemptFeedback
}

// BuildGenerationPrompt renders the user prompt for one generation attempt.
func BuildGenerationPrompt(in GenerationInput) string {
	var sb strings.Builder

	sb.WriteString("# Question\n\n")
	sb.WriteString(in.Query)
	sb.WriteString("\n\n")

	if in.TimeRange != nil && !in.TimeRange.IsZero() {
		sb.WriteString("# Time Range\n\n")
		sb.WriteString(fmt.Sprintf("Start: %s\nEnd: %s\n\n", in.TimeRange.Start, in.TimeRange.End))
	}

	sb.WriteString("# Schema\n\n")
	writeSchema(&sb, in.Tables, in.ColumnDetails)

	if len(in.Clarifications) > 0 {
		sb.WriteString("# Clarifications\n\n")
		keys := make([]string, 0, len(in.Clarifications))
		for k := range in.Clarifications {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", k, in.Clarifications[k]))
		}
		sb.WriteString("\n")
	}

	if len(in.Examples) > 0 {
		sb.WriteString("# Examples\n\n")
		for _, ex := range in.Examples {
			sb.WriteString(fmt.Sprintf("Question: %s\nSQL: %s\n\n", ex.Question, ex.SQL))
		}
	}

	if len(in.PreviousAttempts) > 0 {
		sb.WriteString("# Previous Attempts\n\n")
		sb.WriteString("Earlier attempts at this question failed. Do not repeat these mistakes.\n\n")
		for i, attempt := range in.PreviousAttempts {
			sb.WriteString(fmt.Sprintf("Attempt %d:\n```sql\n%s\n```\n", i+1, attempt.SQL))
			for _, e := range attempt.Errors {
				sb.WriteString(fmt.Sprintf("- %s\n", e))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("Generate a simpler query this time: fewer joins, fewer nested expressions, only the columns strictly needed.\n\n")
	}

	sb.WriteString("# Response Format (JSON)\n\n")
	sb.WriteString("```json\n")
	sb.WriteString(`{
  "sql": "SELECT ...",
  "explanation": "one sentence on what the query computes",
  "tables_used": ["table_a"],
  "confidence": 0.0
}
`)
	sb.WriteString("```\n")

	return sb.String()
}

func writeSchema(sb *strings.Builder, tables []string, columnDetails map[string][]string) {
	if len(tables) == 0 && len(columnDetails) == 0 {
		sb.WriteString("(no schema available)\n\n")
		return
	}

	seen := make(map[string]bool, len(tables))
	ordered := make([]string, 0, len(tables)+len(columnDetails))
	for _, t := range tables {
		if !seen[t] {
			seen[t] = true
			ordered = append(ordered, t)
		}
	}
	extra := make([]string, 0, len(columnDetails))
	for t := range columnDetails {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	ordered = append(ordered, extra...)

	for _, table := range ordered {
		cols := columnDetails[table]
		if len(cols) > 0 {
			sb.WriteString(fmt.Sprintf("**%s**: %s\n", table, strings.Join(cols, ", ")))
		} else {
			sb.WriteString(fmt.Sprintf("**%s**\n", table))
		}
	}
	sb.WriteString("\n")
}
