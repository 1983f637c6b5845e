// Package llm generates answers from compressed prompts with Google Gemini.
package llm

import "github.com/jonathan/admissions-assistant/internal/prompts"

// SystemInstruction is prepended to every prompt.
var SystemInstruction = prompts.MustGet(prompts.SystemInstruction)

// MaxHistoryExchanges is how many recent exchanges are included in a prompt.
const MaxHistoryExchanges = 5

// Config holds the generation settings.
type Config struct {
	Model             string
	Temperature       float32
	TopP              float32
	MaxOutputTokens   int32
	SystemInstruction string
}

// DefaultConfig returns the default Gemini settings.
func DefaultConfig() *Config {
	return &Config{
		Model:             "gemini-2.5-flash",
		Temperature:       0.7,
		TopP:              0.95,
		MaxOutputTokens:   1024,
		SystemInstruction: SystemInstruction,
	}
}

// WithModel returns a copy of c using model.
func (c *Config) WithModel(model string) *Config {
	copied := *c
	copied.Model = model
	return &copied
}
