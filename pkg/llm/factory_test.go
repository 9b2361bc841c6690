package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/config"
)

func TestNewFromConfig(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantErr  string
		wantType any
	}{
		{
			name: "openai provider",
			cfg: config.LLMConfig{
				Provider: "openai",
				Endpoint: "https://api.openai.com/v1",
				Model:    "gpt-4o-mini",
				APIKey:   "sk-test",
			},
			wantType: (*Client)(nil),
		},
		{
			name: "anthropic provider",
			cfg: config.LLMConfig{
				Provider: "anthropic",
				Model:    "claude-sonnet-4-20250514",
				APIKey:   "sk-ant-test",
			},
			wantType: (*AnthropicClient)(nil),
		},
		{
			name: "unsupported provider",
			cfg: config.LLMConfig{
				Provider: "bedrock",
				Model:    "m",
				APIKey:   "k",
			},
			wantErr: "unsupported llm provider",
		},
		{
			name: "missing model",
			cfg: config.LLMConfig{
				Provider: "openai",
				APIKey:   "k",
			},
			wantErr: "model is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewFromConfig(&tt.cfg, logger)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, client)
			assert.Equal(t, tt.cfg.Model, client.GetModel())
		})
	}
}
