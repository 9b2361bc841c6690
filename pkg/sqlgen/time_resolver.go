package sqlgen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-ai/datapilot-engine/pkg/jsonutil"
	"github.com/datapilot-ai/datapilot-engine/pkg/llm"
	"github.com/datapilot-ai/datapilot-engine/pkg/models"
	"github.com/datapilot-ai/datapilot-engine/pkg/prompts"
)

// TimeInference is the external capability that derives a concrete date
// window from a free-text query.
type TimeInference interface {
	InferTimeRange(ctx context.Context, query string) (*models.TimeRange, error)
}

// TimeResolver resolves the time-window dependency. Caller-supplied context
// always wins: an existing window is returned unchanged without consulting
// the inference capability.
type TimeResolver struct {
	inference TimeInference
	logger    *zap.Logger
}

// NewTimeResolver creates a resolver over the given inference capability.
// A nil inference means every unresolved window fails as missing.
func NewTimeResolver(inference TimeInference, logger *zap.Logger) *TimeResolver {
	return &TimeResolver{
		inference: inference,
		logger:    logger.Named("time-resolver"),
	}
}

// Resolve returns the window for this query. Failure here is user-correctable
// (ambiguous time), never an environment fault.
func (r *TimeResolver) Resolve(ctx context.Context, query string, existing *models.TimeRange) (*models.TimeRange, error) {
	if existing != nil && !existing.IsZero() {
		r.logger.Debug("using existing time window",
			zap.String("start", existing.Start),
			zap.String("end", existing.End))
		return existing, nil
	}

	if r.inference == nil {
		return nil, apperrors.ErrMissingTimeRange
	}

	window, err := r.inference.InferTimeRange(ctx, query)
	if err != nil {
		r.logger.Debug("time inference failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMissingTimeRange, err)
	}
	if window == nil || window.IsZero() {
		return nil, apperrors.ErrMissingTimeRange
	}

	r.logger.Debug("inferred time window",
		zap.String("start", window.Start),
		zap.String("end", window.End))
	return window, nil
}

// llmTimeInference asks the model to resolve relative time expressions
// against the current date.
type llmTimeInference struct {
	client llm.LLMClient
	logger *zap.Logger
	now    func() time.Time
}

// NewLLMTimeInference creates a model-backed time inference capability.
func NewLLMTimeInference(client llm.LLMClient, logger *zap.Logger) TimeInference {
	return &llmTimeInference{
		client: client,
		logger: logger.Named("time-inference"),
		now:    time.Now,
	}
}

type timeInferenceResponse struct {
	HasTime   bool            `json:"has_time"`
	StartDate json.RawMessage `json:"start_date"`
	EndDate   json.RawMessage `json:"end_date"`
}

func (t *llmTimeInference) InferTimeRange(ctx context.Context, query string) (*models.TimeRange, error) {
	prompt := prompts.BuildTimeInferencePrompt(query, t.now())

	content, err := t.client.GenerateResponse(ctx, prompt, prompts.TimeInferenceSystemPrompt, llm.Options{
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("time inference call failed: %w", err)
	}

	resp, err := llm.ParseJSONResponse[timeInferenceResponse](content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse time inference response: %w", err)
	}
	if !resp.HasTime {
		return nil, apperrors.ErrMissingTimeRange
	}

	window := &models.TimeRange{
		Start: jsonutil.FlexibleStringValue(resp.StartDate),
		End:   jsonutil.FlexibleStringValue(resp.EndDate),
	}
	if window.IsZero() {
		return nil, apperrors.ErrMissingTimeRange
	}
	return window, nil
}
