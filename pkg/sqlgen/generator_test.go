package sqlgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/config"
	"github.com/datapilot-ai/datapilot-engine/pkg/llm"
)

func testGenerationConfig() *config.GenerationConfig {
	return &config.GenerationConfig{
		MaxAttempts:      3,
		MaxFixAttempts:   1,
		BaseTemperature:  0.1,
		RetryTemperature: 0.7,
	}
}

func TestGenerate_Success(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
		return `{"sql": "SELECT SUM(amount) FROM sales", "explanation": "sums sales", "tables_used": ["sales"], "confidence": 0.9}`, nil
	}

	gen := NewStructuredGenerator(mock, testGenerationConfig(), zap.NewNop())
	got, err := gen.Generate(context.Background(), "prompt", 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT SUM(amount) FROM sales", got.SQL)
	assert.Equal(t, []string{"sales"}, got.TablesUsed)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.True(t, mock.LastOptions.JSONMode)
}

func TestGenerate_TemperaturePolicy(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
		return `{"sql": "SELECT 1 FROM sales"}`, nil
	}

	gen := NewStructuredGenerator(mock, testGenerationConfig(), zap.NewNop())

	_, err := gen.Generate(context.Background(), "prompt", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, mock.LastOptions.Temperature, 1e-9)

	_, err = gen.Generate(context.Background(), "prompt", 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, mock.LastOptions.Temperature, 1e-9)
}

func TestGenerate_FencedJSON(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
		return "Here you go:\n```json\n{\"sql\": \"WITH t AS (SELECT 1) SELECT * FROM t\"}\n```", nil
	}

	gen := NewStructuredGenerator(mock, testGenerationConfig(), zap.NewNop())
	got, err := gen.Generate(context.Background(), "prompt", 0)
	require.NoError(t, err)
	assert.Contains(t, got.SQL, "WITH t AS")
}

func TestGenerate_RejectsNonSelect(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
		return `{"sql": "UPDATE sales SET amount = 0"}`, nil
	}

	gen := NewStructuredGenerator(mock, testGenerationConfig(), zap.NewNop())
	_, err := gen.Generate(context.Background(), "prompt", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a SELECT or WITH")
}

func TestGenerate_RejectsEmptySQL(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
		return `{"sql": "", "explanation": "could not answer"}`, nil
	}

	gen := NewStructuredGenerator(mock, testGenerationConfig(), zap.NewNop())
	_, err := gen.Generate(context.Background(), "prompt", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sql")
}

func TestGenerate_UnparseableOutput(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
		return "I am unable to write SQL for that.", nil
	}

	gen := NewStructuredGenerator(mock, testGenerationConfig(), zap.NewNop())
	_, err := gen.Generate(context.Background(), "prompt", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable model output")
}

func TestGenerate_ModelError(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
		return "", errors.New("429 too many requests")
	}

	gen := NewStructuredGenerator(mock, testGenerationConfig(), zap.NewNop())
	_, err := gen.Generate(context.Background(), "prompt", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model call failed")
}

func TestPrecheckSQL(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr string
	}{
		{name: "clean select", sql: "SELECT id FROM sales"},
		{name: "drop rejected", sql: "SELECT 1; DROP TABLE sales", wantErr: "forbidden keyword DROP"},
		{name: "delete rejected", sql: "SELECT * FROM logs WHERE action = 1 AND DELETE", wantErr: "forbidden keyword DELETE"},
		{name: "truncate rejected", sql: "SELECT 1 FROM t; TRUNCATE t", wantErr: "forbidden keyword TRUNCATE"},
		{name: "keyword as substring allowed", sql: "SELECT dropped_at FROM deletions"},
		{name: "unterminated string", sql: "SELECT 'oops FROM t", wantErr: "does not tokenize"},
		{name: "injection payload in literal", sql: "SELECT * FROM users WHERE name = '1'' OR ''1''=''1'", wantErr: "injection fingerprint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PrecheckSQL(tt.sql)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
