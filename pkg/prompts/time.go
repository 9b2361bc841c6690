package prompts

import (
	"fmt"
	"strings"
	"time"
)

// TimeInferenceSystemPrompt instructs the model to extract an explicit date
// window from a natural language question.
const TimeInferenceSystemPrompt = `You are a date range extraction assistant. Given a question and today's date, determine the concrete date window the question refers to.

Rules:
- Resolve relative expressions ("last month", "this quarter", "past 7 days") against today's date.
- Dates are inclusive and formatted YYYY-MM-DD.
- If the question carries no time expression at all, set "has_time" to false.

Respond with a single JSON object and nothing else.`

// BuildTimeInferencePrompt renders the prompt asking the model to resolve the
// question's time expression into a concrete window.
func BuildTimeInferencePrompt(query string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Today's date: %s\n\n", now.Format("2006-01-02")))
	sb.WriteString("Question:\n")
	sb.WriteString(query)
	sb.WriteString("\n\n")
	sb.WriteString("Response Format (JSON):\n")
	sb.WriteString("```json\n")
	sb.WriteString(`{
  "has_time": true,
  "start_date": "YYYY-MM-DD",
  "end_date": "YYYY-MM-DD"
}
`)
	sb.WriteString("```\n")

	return sb.String()
}
