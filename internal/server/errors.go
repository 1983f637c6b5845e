package server

// Error codes returned in the error_code field.
const (
	CodeInvalidJSON   = "INVALID_JSON"
	CodeEmptyMessage  = "EMPTY_MESSAGE"
	CodeNoContext     = "NO_CONTEXT"
	CodeGeminiError   = "GEMINI_ERROR"
	CodeReloadError   = "RELOAD_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimited   = "RATE_LIMITED"
)

// Error messages shown to API clients.
const (
	MsgInvalidJSON  = "Invalid JSON request"
	MsgEmptyMessage = "Message cannot be empty"
	MsgNoContext    = "Chatbot context not available. Please try again later."
	MsgInternal     = "An unexpected error occurred. Please try again."
	MsgReloadFailed = "Failed to reload context"
	MsgNotFound     = "Endpoint not found"
	MsgRateLimited  = "Rate limit exceeded. Please try again later."
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// RateLimitResponse is returned with 429.
type RateLimitResponse struct {
	ErrorResponse
	RetryAfter int `json:"retry_after"`
}

func newErrorResponse(message, code string) ErrorResponse {
	return ErrorResponse{Error: true, Message: message, ErrorCode: code}
}
