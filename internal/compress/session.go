package compress

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/prompts"
)

// reuseTemplate appends a new question to a retained compressed prompt.
var reuseTemplate = prompts.MustGet(prompts.ReuseQuery)

// Mode selects how a Session treats questions after the first.
type Mode string

const (
	// ModeReuse compresses once per corpus and appends later questions to the
	// retained prompt as plain text. Later questions do not influence what the
	// service kept from the corpus, so answers can miss relevant passages; the
	// gain is one compression call per corpus instead of one per question.
	ModeReuse Mode = "reuse"
	// ModeRecompress compresses every question against the full corpus.
	ModeRecompress Mode = "recompress"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReuse, ModeRecompress:
		return Mode(s), nil
	case "":
		return ModeReuse, nil
	default:
		return "", fmt.Errorf("unknown compression mode %q", s)
	}
}

// ContextSource supplies the current corpus.
type ContextSource interface {
	GetContext(ctx context.Context) (string, error)
}

// Compressor compresses a corpus and question.
type Compressor interface {
	Compress(ctx context.Context, corpus, question string) Result
}

// Stats are the compression figures reported with an answer.
type Stats struct {
	OriginalTokens   int     `json:"original_tokens"`
	CompressedTokens int     `json:"compressed_tokens"`
	Ratio            float64 `json:"compression_ratio"`
	Successful       bool    `json:"successful"`
	LatencyMs        int64   `json:"latency_ms"`
	Cached           bool    `json:"cached"`
}

func statsOf(r Result, cached bool) Stats {
	return Stats{
		OriginalTokens:   r.OriginalTokens,
		CompressedTokens: r.CompressedTokens,
		Ratio:            r.Ratio,
		Successful:       r.Successful,
		LatencyMs:        r.LatencyMs,
		Cached:           cached,
	}
}

// Session turns questions into prompts against the current corpus and, in
// ModeReuse, retains the first successful compression until Reset.
type Session struct {
	source     ContextSource
	compressor Compressor
	mode       Mode
	logger     *zap.Logger

	mu         sync.Mutex
	retained   *Result
	generation uint64
}

// NewSession creates a Session. An empty mode means ModeReuse.
func NewSession(source ContextSource, compressor Compressor, mode Mode, logger *zap.Logger) *Session {
	if mode == "" {
		mode = ModeReuse
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{source: source, compressor: compressor, mode: mode, logger: logger}
}

// Mode returns the session's mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// CompressOrReuse returns the prompt for question. Errors come only from the
// context source; compression failures yield the uncompressed prompt.
func (s *Session) CompressOrReuse(ctx context.Context, question string) (string, Stats, error) {
	if s.mode == ModeReuse {
		s.mu.Lock()
		retained := s.retained
		s.mu.Unlock()
		if retained != nil {
			s.logger.Info("reusing retained compression")
			prompt := prompts.Format(reuseTemplate, map[string]string{
				"Retained": retained.CompressedPrompt,
				"Question": question,
			})
			return prompt, statsOf(*retained, true), nil
		}
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	corpus, err := s.source.GetContext(ctx)
	if err != nil {
		return "", Stats{}, err
	}

	result := s.compressor.Compress(ctx, corpus, question)
	if result.Error != "" {
		s.logger.Warn("compression failed, using uncompressed prompt",
			zap.String("error", result.Error),
			zap.String("category", string(result.ErrorKind)))
	}

	if s.mode == ModeReuse && result.Successful {
		s.mu.Lock()
		// Results computed before a Reset belong to the old corpus.
		if s.generation == gen && s.retained == nil {
			s.retained = &result
			s.logger.Info("retained compression for later questions")
		}
		s.mu.Unlock()
	}

	return result.CompressedPrompt, statsOf(result, false), nil
}

// Reset drops the retained compression.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retained = nil
	s.generation++
}

// Retained reports whether a compression is retained.
func (s *Session) Retained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retained != nil
}
