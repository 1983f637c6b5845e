// Package compress shrinks the merged context and a question into a prompt
// through the external compression service. Compression is best effort: every
// failure yields the uncompressed prompt instead of an error.
package compress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/schemas"
)

// Defaults for the compression service.
const (
	DefaultURL     = "https://api.scaledown.xyz/compress/raw/"
	DefaultModel   = "gemini-2.5-flash"
	DefaultRate    = "auto"
	DefaultTimeout = 15 * time.Second
)

// ErrMsgNoAPIKey is the Result.Error when no key is configured.
const ErrMsgNoAPIKey = "API key not configured"

// ErrorKind classifies a failed compression.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindNoAPIKey   ErrorKind = "no_api_key"
	KindTimeout    ErrorKind = "timeout"
	KindHTTP       ErrorKind = "http"
	KindTransport  ErrorKind = "transport"
	KindDecode     ErrorKind = "decode"
	KindUnexpected ErrorKind = "unexpected"
)

// Result is the outcome of one Compress call. CompressedPrompt is always
// usable, whether or not compression succeeded.
type Result struct {
	CompressedPrompt string    `json:"compressed_prompt"`
	OriginalTokens   int       `json:"original_tokens"`
	CompressedTokens int       `json:"compressed_tokens"`
	Ratio            float64   `json:"compression_ratio"`
	Successful       bool      `json:"successful"`
	Error            string    `json:"error,omitempty"`
	ErrorKind        ErrorKind `json:"error_kind,omitempty"`
	LatencyMs        int64     `json:"latency_ms"`
}

// Config configures the service client.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Rate    string
	Timeout time.Duration
}

// Client calls the compression service.
type Client struct {
	cfg        Config
	httpClient *http.Client
	schema     *schemas.Schema
	logger     *zap.Logger
}

// NewClient creates a Client, filling unset fields with defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Rate == "" {
		cfg.Rate = DefaultRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		logger.Warn("compression API key not configured, prompts will be sent uncompressed")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		schema:     schemas.MustLoad(schemas.CompressionResponse),
		logger:     logger,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// Fallback is the uncompressed prompt used whenever compression fails.
func Fallback(corpus, question string) string {
	return corpus + "\n\nUser Query: " + question
}

type request struct {
	Context   string       `json:"context"`
	Prompt    string       `json:"prompt"`
	Model     string       `json:"model"`
	Scaledown requestScale `json:"scaledown"`
}

type requestScale struct {
	Rate string `json:"rate"`
}

type response struct {
	Results struct {
		CompressedPrompt string `json:"compressed_prompt"`
	} `json:"results"`
	TotalOriginalTokens   int     `json:"total_original_tokens"`
	TotalCompressedTokens int     `json:"total_compressed_tokens"`
	LatencyMs             float64 `json:"latency_ms"`
	Successful            bool    `json:"successful"`
}

// Compress sends the corpus and question to the service in a single attempt.
func (c *Client) Compress(ctx context.Context, corpus, question string) (result Result) {
	result = Result{Ratio: 1.0}

	if !c.Configured() {
		c.logger.Warn("compression API key not configured, returning uncompressed prompt")
		result.CompressedPrompt = Fallback(corpus, question)
		result.Error = ErrMsgNoAPIKey
		result.ErrorKind = KindNoAPIKey
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result = c.fail(corpus, question, KindUnexpected,
				fmt.Sprintf("Unexpected error in Scaledown compression: %v", r))
		}
	}()

	body, err := json.Marshal(request{
		Context:   corpus,
		Prompt:    question,
		Model:     c.cfg.Model,
		Scaledown: requestScale{Rate: c.cfg.Rate},
	})
	if err != nil {
		return c.fail(corpus, question, KindUnexpected,
			fmt.Sprintf("Unexpected error in Scaledown compression: %v", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return c.fail(corpus, question, KindTransport,
			fmt.Sprintf("Scaledown API request failed: %v", err))
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("compressing prompt",
		zap.Int("context_chars", len(corpus)),
		zap.Int("prompt_chars", len(question)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return c.fail(corpus, question, KindTimeout,
				c.timeoutMessage())
		}
		return c.fail(corpus, question, KindTransport,
			fmt.Sprintf("Scaledown API request failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return c.fail(corpus, question, KindTimeout,
				c.timeoutMessage())
		}
		return c.fail(corpus, question, KindTransport,
			fmt.Sprintf("Scaledown API request failed: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(corpus, question, KindHTTP,
			fmt.Sprintf("Scaledown API HTTP error: %d - %s", resp.StatusCode, string(raw)))
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return c.fail(corpus, question, KindDecode,
			fmt.Sprintf("Failed to parse Scaledown API response: %v", err))
	}
	if err := c.schema.Validate(raw); err != nil {
		return c.fail(corpus, question, KindDecode,
			fmt.Sprintf("Failed to parse Scaledown API response: %v", err))
	}

	result.CompressedPrompt = parsed.Results.CompressedPrompt
	result.OriginalTokens = parsed.TotalOriginalTokens
	result.CompressedTokens = parsed.TotalCompressedTokens
	result.LatencyMs = int64(parsed.LatencyMs)
	result.Successful = parsed.Successful
	result.Ratio = Ratio(result.OriginalTokens, result.CompressedTokens, utf8.RuneCountInString(corpus)+utf8.RuneCountInString(question), utf8.RuneCountInString(result.CompressedPrompt))

	if result.CompressedPrompt == "" {
		// Never hand an empty prompt to the generator.
		result.CompressedPrompt = Fallback(corpus, question)
		result.Successful = false
		result.Error = "Scaledown API returned an empty compressed prompt"
		result.ErrorKind = KindDecode
		c.logger.Warn(result.Error)
		return result
	}

	c.logger.Info("compression completed", zap.String("stats", FormatStats(result)))
	if !result.Successful {
		c.logger.Warn("compression service returned successful=false")
	}
	return result
}

func (c *Client) fail(corpus, question string, kind ErrorKind, msg string) Result {
	c.logger.Error(msg, zap.String("category", string(kind)))
	return Result{
		CompressedPrompt: Fallback(corpus, question),
		Ratio:            1.0,
		Error:            msg,
		ErrorKind:        kind,
	}
}

func (c *Client) timeoutMessage() string {
	return fmt.Sprintf("Scaledown API timeout after %ss", strconv.FormatFloat(c.cfg.Timeout.Seconds(), 'f', -1, 64))
}

// Ratio returns originalTokens/compressedTokens when both are positive,
// otherwise the character-length reduction, otherwise 1.
func Ratio(originalTokens, compressedTokens, originalChars, compressedChars int) float64 {
	if originalTokens > 0 && compressedTokens > 0 {
		return float64(originalTokens) / float64(compressedTokens)
	}
	if compressedChars > 0 {
		return float64(originalChars) / float64(compressedChars)
	}
	return 1.0
}

// FormatStats renders token counts and savings for logs.
func FormatStats(r Result) string {
	if r.OriginalTokens <= 0 {
		return "Compression stats incomplete"
	}
	savings := float64(r.OriginalTokens-r.CompressedTokens) / float64(r.OriginalTokens) * 100
	return fmt.Sprintf("Compression: %d → %d tokens (%.1f%% reduction, %.2fx compression)",
		r.OriginalTokens, r.CompressedTokens, savings, r.Ratio)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
