package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/assembler"
	"github.com/jonathan/admissions-assistant/internal/compress"
	"github.com/jonathan/admissions-assistant/internal/llm"
)

// Service identity reported by the index route.
const (
	ServiceName    = "University Admissions Chatbot API"
	ServiceVersion = "1.0.0"
)

const maxChatBodyBytes = 1 << 20

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string         `json:"message"`
	History []llm.Exchange `json:"history"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response         string         `json:"response"`
	CompressionStats compress.Stats `json:"compression_stats"`
	Error            bool           `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string          `json:"status"`
	ContextLoaded    bool            `json:"context_loaded"`
	ContextSizeChars int             `json:"context_size_chars"`
	Components       map[string]bool `json:"components"`
}

// ReloadResponse is the body of a successful POST /reload-context.
type ReloadResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ContextSizeChars int    `json:"context_size_chars"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"service": ServiceName,
		"version": ServiceVersion,
		"endpoints": map[string]string{
			"GET /":                "API information",
			"GET /health":          "Health check",
			"POST /chat":           "Chat endpoint (send message)",
			"POST /reload-context": "Reload university data context",
		},
	})
}

// handleHealth reports whether the context is loaded. It never triggers a load.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	loaded, size := s.contexts.Loaded()
	s.jsonResponse(w, http.StatusOK, HealthResponse{
		Status:           "healthy",
		ContextLoaded:    loaded,
		ContextSizeChars: size,
		Components: map[string]bool{
			"data_ingestion": loaded,
			"scaledown":      true, // falls back to the uncompressed prompt
			"gemini":         true,
		},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	req, ok := decodeChatRequest(r)
	if !ok {
		s.jsonResponse(w, http.StatusBadRequest, newErrorResponse(MsgInvalidJSON, CodeInvalidJSON))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.jsonResponse(w, http.StatusBadRequest, newErrorResponse(MsgEmptyMessage, CodeEmptyMessage))
		return
	}
	log.Info("chat request", zap.String("message", preview(message, 100)), zap.Int("history", len(req.History)))

	prompt, stats, err := s.prompts.CompressOrReuse(r.Context(), message)
	if err != nil {
		if errors.Is(err, assembler.ErrNoContext) {
			log.Error("no context available")
			s.jsonResponse(w, http.StatusInternalServerError, newErrorResponse(MsgNoContext, CodeNoContext))
			return
		}
		log.Error("preparing prompt", zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, newErrorResponse(MsgInternal, CodeInternalError))
		return
	}
	log.Info("compression stats",
		zap.Int("original_tokens", stats.OriginalTokens),
		zap.Int("compressed_tokens", stats.CompressedTokens),
		zap.Float64("ratio", stats.Ratio),
		zap.Bool("successful", stats.Successful),
		zap.Bool("cached", stats.Cached))

	answer, err := s.generator.Generate(r.Context(), prompt, req.History)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, newErrorResponse(llm.FriendlyError(err), CodeGeminiError))
		return
	}

	log.Info("response generated", zap.Int("chars", len(answer)))
	s.jsonResponse(w, http.StatusOK, ChatResponse{
		Response:         answer,
		CompressionStats: stats,
		Error:            false,
	})
}

// decodeChatRequest rejects bodies that are not a non-empty JSON object.
func decodeChatRequest(r *http.Request) (ChatRequest, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBodyBytes))
	if err != nil {
		return ChatRequest{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return ChatRequest{}, false
	}
	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return ChatRequest{}, false
	}
	return req, true
}

// handleReloadContext rebuilds the context. Finding no content is not a
// failure; the new size is simply zero.
func (s *Server) handleReloadContext(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	ctx, err := s.contexts.Reload(r.Context())
	if err != nil && !errors.Is(err, assembler.ErrNoContext) {
		log.Error("reload context", zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, newErrorResponse(MsgReloadFailed, CodeReloadError))
		return
	}
	if err != nil {
		log.Warn("reload found no content")
	}

	s.jsonResponse(w, http.StatusOK, ReloadResponse{
		Success:          true,
		Message:          "Context reloaded successfully",
		ContextSizeChars: len(ctx),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusNotFound, newErrorResponse(MsgNotFound, CodeNotFound))
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
