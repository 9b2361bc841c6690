package sqlgen

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/config"
	"github.com/datapilot-ai/datapilot-engine/pkg/jsonutil"
	"github.com/datapilot-ai/datapilot-engine/pkg/llm"
	"github.com/datapilot-ai/datapilot-engine/pkg/logging"
	"github.com/datapilot-ai/datapilot-engine/pkg/prompts"
)

// GeneratedSQL is the parsed output of one structured generation attempt.
type GeneratedSQL struct {
	SQL         string
	Explanation string
	TablesUsed  []string
	Confidence  float64
	RawOutput   string
}

type generationResponse struct {
	SQL         string          `json:"sql"`
	Explanation string          `json:"explanation"`
	TablesUsed  json.RawMessage `json:"tables_used"`
	Confidence  json.RawMessage `json:"confidence"`
}

// forbiddenKeywords are statement types the generator refuses outright,
// before the validator ever sees the SQL.
var forbiddenKeywords = []string{"DROP", "DELETE", "TRUNCATE"}

var forbiddenKeywordPatterns = compileKeywordPatterns(forbiddenKeywords)

func compileKeywordPatterns(keywords []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(keywords))
	for _, kw := range keywords {
		patterns[kw] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
	return patterns
}

// StructuredGenerator makes one bounded model call per attempt, requesting a
// JSON-shaped response, and applies baseline sanity checks to the output.
type StructuredGenerator struct {
	client    llm.LLMClient
	baseTemp  float64
	retryTemp float64
	logger    *zap.Logger
}

// NewStructuredGenerator creates a generator with the configured temperature
// policy: near-deterministic on the first attempt, exploratory after.
func NewStructuredGenerator(client llm.LLMClient, cfg *config.GenerationConfig, logger *zap.Logger) *StructuredGenerator {
	return &StructuredGenerator{
		client:    client,
		baseTemp:  cfg.BaseTemperature,
		retryTemp: cfg.RetryTemperature,
		logger:    logger.Named("sql-generator"),
	}
}

// Generate runs one attempt. attemptIndex selects the temperature: index 0
// uses the base temperature, later indexes the retry temperature.
func (g *StructuredGenerator) Generate(ctx context.Context, prompt string, attemptIndex int) (*GeneratedSQL, error) {
	temperature := g.baseTemp
	if attemptIndex > 0 {
		temperature = g.retryTemp
	}

	content, err := g.client.GenerateResponse(ctx, prompt, prompts.SQLGenerationSystemPrompt, llm.Options{
		Temperature: temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	resp, err := llm.ParseJSONResponse[generationResponse](content)
	if err != nil {
		return nil, fmt.Errorf("unparseable model output: %w", err)
	}

	sql := strings.TrimSpace(resp.SQL)
	if sql == "" {
		return nil, fmt.Errorf("model returned no sql")
	}
	upper := strings.ToUpper(sql)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return nil, fmt.Errorf("generated statement is not a SELECT or WITH query")
	}

	if err := PrecheckSQL(sql); err != nil {
		return nil, err
	}

	generated := &GeneratedSQL{
		SQL:         sql,
		Explanation: resp.Explanation,
		TablesUsed:  jsonutil.FlexibleStringSlice(resp.TablesUsed),
		Confidence:  jsonutil.FlexibleFloatValue(resp.Confidence),
		RawOutput:   content,
	}

	g.logger.Debug("generated sql",
		zap.Int("attempt", attemptIndex),
		zap.Float64("temperature", temperature),
		zap.Float64("confidence", generated.Confidence),
		zap.String("sql", logging.TruncateSQL(sql)))

	return generated, nil
}

// PrecheckSQL is a cheap structural gate run before the heavier validator:
// the statement must tokenize, must not contain destructive keywords, and its
// string literals must not carry injection fingerprints.
func PrecheckSQL(sql string) error {
	tokens, err := Tokenize(sql)
	if err != nil {
		return fmt.Errorf("sql does not tokenize: %w", err)
	}

	for _, kw := range forbiddenKeywords {
		if forbiddenKeywordPatterns[kw].MatchString(sql) {
			return fmt.Errorf("forbidden keyword %s in generated sql", kw)
		}
	}

	for _, tok := range tokens {
		if tok.Kind != TokenString {
			continue
		}
		literal := strings.Trim(tok.Text, "'")
		if injection, _ := libinjection.IsSQLi(literal); injection {
			return fmt.Errorf("string literal at offset %d carries an injection fingerprint", tok.Offset)
		}
	}

	return nil
}
