package llm

import (
	"context"
	"fmt"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/datapilot-ai/datapilot-engine/pkg/retry"
)

const anthropicMaxTokens = 4096

// AnthropicClient provides access to Anthropic message endpoints.
type AnthropicClient struct {
	client   *anthropic.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewAnthropicClient creates an Anthropic-backed LLM client.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var clientOpts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicClient{
		client:   anthropic.NewClient(cfg.APIKey, clientOpts...),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm-anthropic"),
	}, nil
}

// GenerateResponse generates a chat completion response.
// Anthropic has no JSON response format switch; when JSONMode is requested the
// system message is extended with a JSON-only instruction and the caller's
// tolerant extraction handles the rest.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, opts Options) (string, error) {
	if opts.JSONMode {
		systemMessage += "\n\nRespond with a single JSON object and nothing else."
	}

	temperature := float32(opts.Temperature)

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", opts.Temperature))

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (anthropic.MessagesResponse, error) {
		r, callErr := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(c.model),
			System:      systemMessage,
			MaxTokens:   anthropicMaxTokens,
			Temperature: &temperature,
			Messages: []anthropic.Message{
				anthropic.NewUserTextMessage(prompt),
			},
		})
		if callErr != nil {
			return r, ClassifyError(callErr)
		}
		return r, nil
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	content := resp.GetFirstContentText()
	if content == "" {
		return "", NewError(ErrorTypeResponse, "no content in response", false, nil)
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return content, nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *AnthropicClient) GetEndpoint() string {
	return c.endpoint
}

// Ensure AnthropicClient implements LLMClient at compile time.
var _ LLMClient = (*AnthropicClient)(nil)
