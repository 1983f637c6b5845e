package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Generator produces an answer from a compressed prompt.
type Generator interface {
	Generate(ctx context.Context, compressedPrompt string, history []Exchange) (string, error)
}

// GeminiClient implements Generator for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
	logger *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info("Gemini client initialized", zap.String("model", config.Model))
	return &GeminiClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Generate sends the system instruction, compressed prompt and recent history
// as one prompt. An empty answer is replaced with MsgEmptyResponse.
func (c *GeminiClient) Generate(ctx context.Context, compressedPrompt string, history []Exchange) (string, error) {
	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(c.config.Temperature)
	model.SetTopP(c.config.TopP)
	model.SetMaxOutputTokens(c.config.MaxOutputTokens)

	prompt := BuildPrompt(c.config.SystemInstruction, compressedPrompt, history)
	c.logger.Info("generating response", zap.Int("prompt_chars", len(prompt)))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("Gemini API error", zap.Error(err))
		return "", &GenerationError{Model: c.config.Model, Cause: err}
	}

	text := strings.TrimSpace(extractTextFromResponse(resp))
	if text == "" {
		c.logger.Warn("Gemini returned empty response")
		return MsgEmptyResponse, nil
	}

	c.logger.Info("response generated", zap.Int("chars", len(text)))
	return text, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.config.Model
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse concatenates the text parts of the first candidate.
func extractTextFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	return strings.Join(parts, "")
}

var _ Generator = (*GeminiClient)(nil)
