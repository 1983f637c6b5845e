package llm

import (
	"errors"
	"fmt"
	"strings"
)

// User-facing messages.
const (
	MsgEmptyResponse = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
	MsgHighDemand    = "I'm currently experiencing high demand. Please try again in a moment."
	MsgConfiguration = "There's a configuration issue with the chatbot. Please contact support."
	MsgBlocked       = "I can't respond to that type of question. Please ask about university admissions, programs, or fees."
	MsgGeneric       = "I'm having trouble processing your request right now. Please try again or rephrase your question."
)

// GenerationError wraps a provider failure.
type GenerationError struct {
	Model string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation with %s failed: %v", e.Model, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// FriendlyError maps err to a message fit for the end user.
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return MsgHighDemand
	case strings.Contains(msg, "api key") || strings.Contains(msg, "authentication"):
		return MsgConfiguration
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked"):
		return MsgBlocked
	default:
		return MsgGeneric
	}
}

// ErrNoAPIKey is returned when the client is built without a key.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY must be set")
