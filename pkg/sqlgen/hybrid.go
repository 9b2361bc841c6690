package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/models"
)

// FallbackStrategy is the iterative, tool-augmented generation loop able to
// acquire missing dependencies incrementally. It is an external collaborator;
// the hybrid layer only decides when to call it and normalizes its output.
type FallbackStrategy interface {
	Generate(ctx context.Context, query string, snapshot *models.ContextSnapshot, reason string) (*Result, error)
}

// Completeness is the outcome of the four-field context check.
type Completeness struct {
	Complete bool
	Missing  []string
}

// CheckCompleteness inspects the snapshot without any network calls. The
// context is complete iff a time indicator, a schema indicator, a datasource
// configuration and a datasource identifier are all present. Each field is
// checked independently so diagnostics list everything missing.
func CheckCompleteness(snapshot *models.ContextSnapshot) Completeness {
	var missing []string

	if snapshot == nil {
		return Completeness{Missing: []string{"time_range", "schema", "datasource_config", "datasource_id"}}
	}

	if !snapshot.HasTimeIndicator() {
		missing = append(missing, "time_range")
	}
	if !snapshot.HasSchemaIndicator() {
		missing = append(missing, "schema")
	}
	if snapshot.Datasource == nil {
		missing = append(missing, "datasource_config", "datasource_id")
	} else if snapshot.Datasource.ID == uuid.Nil {
		missing = append(missing, "datasource_id")
	}

	return Completeness{Complete: len(missing) == 0, Missing: missing}
}

// HybridGenerator selects between the fast coordinator path and the
// iterative fallback based on context completeness. Callers get one result
// shape regardless of which strategy answered.
type HybridGenerator struct {
	coordinator *Coordinator
	fallback    FallbackStrategy
	logger      *zap.Logger
}

// NewHybridGenerator wires the strategy selector. fallback may be nil, in
// which case every escalation returns the fast-path failure instead.
func NewHybridGenerator(coordinator *Coordinator, fallback FallbackStrategy, logger *zap.Logger) *HybridGenerator {
	return &HybridGenerator{
		coordinator: coordinator,
		fallback:    fallback,
		logger:      logger.Named("hybrid-generator"),
	}
}

// Generate routes one query. Complete context tries the fast path first and
// escalates on failure when allowed; incomplete context goes straight to the
// fallback, since the fast path is known in advance to be unable to succeed.
func (h *HybridGenerator) Generate(ctx context.Context, query string, snapshot *models.ContextSnapshot, allowFallback bool) *Result {
	completeness := CheckCompleteness(snapshot)

	if !completeness.Complete {
		reason := fmt.Sprintf("incomplete context: missing %s", strings.Join(completeness.Missing, ", "))
		h.logger.Info("skipping fast path", zap.Strings("missing", completeness.Missing))

		if !allowFallback || h.fallback == nil {
			return &Result{
				Outcome:     OutcomeDependencyMissing,
				Error:       reason,
				Suggestions: completenessSuggestions(completeness.Missing),
				Metadata:    Metadata{FallbackReason: "fallback unavailable"},
			}
		}
		return h.delegate(ctx, query, snapshot, reason)
	}

	result := h.coordinator.Generate(ctx, query, snapshot)
	if result.Success {
		result.Metadata.Strategy = StrategySQLFirst
		return result
	}

	if !allowFallback || h.fallback == nil {
		h.logger.Info("fast path failed, fallback not consulted", zap.String("error", result.Error))
		result.Metadata.Strategy = StrategySQLFirst
		result.Metadata.FallbackReason = "no fallback"
		return result
	}

	reason := result.Error
	if reason == "" {
		reason = string(result.Outcome)
	}
	h.logger.Info("fast path failed, delegating to fallback", zap.String("reason", reason))
	return h.delegate(ctx, query, snapshot, reason)
}

// delegate invokes the fallback and normalizes its output, carrying the
// escalation reason as diagnostic metadata.
func (h *HybridGenerator) delegate(ctx context.Context, query string, snapshot *models.ContextSnapshot, reason string) *Result {
	result, err := h.fallback.Generate(ctx, query, snapshot, reason)
	if err != nil {
		h.logger.Error("fallback failed", zap.Error(err))
		return &Result{
			Outcome: OutcomeValidationFailed,
			Error:   fmt.Sprintf("fallback generation failed: %v", err),
			Metadata: Metadata{
				Strategy:       StrategyFallback,
				FallbackReason: reason,
			},
		}
	}
	if result == nil {
		result = &Result{
			Outcome: OutcomeValidationFailed,
			Error:   "fallback returned no result",
		}
	}

	result.Metadata.Strategy = StrategyFallback
	result.Metadata.FallbackReason = reason
	return result
}

func completenessSuggestions(missing []string) []string {
	suggestions := make([]string, 0, len(missing))
	for _, field := range missing {
		switch field {
		case "time_range":
			suggestions = append(suggestions, "Provide an explicit date range for the question.")
		case "schema":
			suggestions = append(suggestions, "Select the tables the question should run against.")
		case "datasource_config":
			suggestions = append(suggestions, "Configure a datasource connection.")
		case "datasource_id":
			suggestions = append(suggestions, "Select which datasource to query.")
		}
	}
	return suggestions
}
