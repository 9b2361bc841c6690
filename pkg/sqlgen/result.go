package sqlgen

// Outcome is the closed set of terminal states a generation invocation can
// reach. Consumers switch on it exhaustively instead of probing fields.
type Outcome string

const (
	// OutcomeSuccess means validated SQL was produced.
	OutcomeSuccess Outcome = "success"
	// OutcomeDependencyMissing means a required dependency (time window or
	// schema) could not be resolved before generation.
	OutcomeDependencyMissing Outcome = "dependency_missing"
	// OutcomeValidationFailed means generation produced SQL but no attempt
	// survived validation, including a top-level failure converted from a
	// panic.
	OutcomeValidationFailed Outcome = "validation_failed"
	// OutcomeExhausted means the generation budget ran out.
	OutcomeExhausted Outcome = "exhausted"
)

// Strategy labels recorded in result metadata so callers can tell which path
// answered without knowing the routing internals.
const (
	StrategySQLFirst = "sql_first"
	StrategyFallback = "ptav_fallback"
)

// Metadata carries diagnostic detail alongside the result.
type Metadata struct {
	Attempts         int     `json:"attempts"`
	Confidence       float64 `json:"confidence,omitempty"`
	Strategy         string  `json:"strategy,omitempty"`
	Explanation      string  `json:"explanation,omitempty"`
	ValidationDetail string  `json:"validation_detail,omitempty"`
	FallbackReason   string  `json:"fallback_reason,omitempty"`
}

// Result is the single shape every generation path resolves to.
// Treated as immutable once built.
type Result struct {
	Success        bool     `json:"success"`
	Outcome        Outcome  `json:"outcome"`
	SQL            string   `json:"sql,omitempty"`
	Metadata       Metadata `json:"metadata"`
	Error          string   `json:"error,omitempty"`
	NeedsUserInput bool     `json:"needs_user_input,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	DebugInfo      []string `json:"debug_info,omitempty"`
}
