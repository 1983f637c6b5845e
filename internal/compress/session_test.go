package compress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct {
	corpus string
	err    error
}

func (s *staticSource) GetContext(context.Context) (string, error) {
	return s.corpus, s.err
}

type fakeCompressor struct {
	calls  []string
	fail   bool
	onCall func()
}

func (f *fakeCompressor) Compress(_ context.Context, corpus, question string) Result {
	f.calls = append(f.calls, question)
	if f.onCall != nil {
		f.onCall()
	}
	if f.fail {
		return Result{CompressedPrompt: Fallback(corpus, question), Ratio: 1, Error: "down", ErrorKind: KindTransport}
	}
	return Result{
		CompressedPrompt: "C[" + corpus + "|" + question + "]",
		OriginalTokens:   100,
		CompressedTokens: 20,
		Ratio:            5,
		Successful:       true,
		LatencyMs:        7,
	}
}

func TestSession_ReuseMode(t *testing.T) {
	compressor := &fakeCompressor{}
	s := NewSession(&staticSource{corpus: "corpus"}, compressor, ModeReuse, zap.NewNop())

	first, stats, err := s.CompressOrReuse(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, "C[corpus|q1]", first)
	assert.False(t, stats.Cached)
	assert.Equal(t, 5.0, stats.Ratio)
	assert.True(t, s.Retained())

	second, stats, err := s.CompressOrReuse(context.Background(), "q2")
	require.NoError(t, err)
	assert.Equal(t, "C[corpus|q1]\n\nNew User Query: q2", second)
	assert.True(t, stats.Cached)
	assert.True(t, stats.Successful)
	assert.Equal(t, []string{"q1"}, compressor.calls)
}

func TestSession_RecompressMode(t *testing.T) {
	compressor := &fakeCompressor{}
	s := NewSession(&staticSource{corpus: "corpus"}, compressor, ModeRecompress, zap.NewNop())

	_, _, err := s.CompressOrReuse(context.Background(), "q1")
	require.NoError(t, err)
	second, stats, err := s.CompressOrReuse(context.Background(), "q2")
	require.NoError(t, err)

	assert.Equal(t, "C[corpus|q2]", second)
	assert.False(t, stats.Cached)
	assert.False(t, s.Retained())
	assert.Equal(t, []string{"q1", "q2"}, compressor.calls)
}

func TestSession_FailedCompressionNotRetained(t *testing.T) {
	compressor := &fakeCompressor{fail: true}
	s := NewSession(&staticSource{corpus: "corpus"}, compressor, ModeReuse, zap.NewNop())

	prompt, stats, err := s.CompressOrReuse(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, "corpus\n\nUser Query: q1", prompt)
	assert.False(t, stats.Successful)
	assert.False(t, s.Retained())

	_, _, err = s.CompressOrReuse(context.Background(), "q2")
	require.NoError(t, err)
	assert.Len(t, compressor.calls, 2)
}

func TestSession_ResetDropsRetained(t *testing.T) {
	source := &staticSource{corpus: "v1"}
	compressor := &fakeCompressor{}
	s := NewSession(source, compressor, ModeReuse, zap.NewNop())

	_, _, err := s.CompressOrReuse(context.Background(), "q1")
	require.NoError(t, err)

	source.corpus = "v2"
	s.Reset()
	assert.False(t, s.Retained())

	prompt, _, err := s.CompressOrReuse(context.Background(), "q2")
	require.NoError(t, err)
	assert.Equal(t, "C[v2|q2]", prompt)
}

func TestSession_ResetDuringCompressionDiscardsResult(t *testing.T) {
	compressor := &fakeCompressor{}
	s := NewSession(&staticSource{corpus: "corpus"}, compressor, ModeReuse, zap.NewNop())
	compressor.onCall = func() {
		compressor.onCall = nil
		s.Reset()
	}

	_, _, err := s.CompressOrReuse(context.Background(), "q1")
	require.NoError(t, err)

	assert.False(t, s.Retained())
}

func TestSession_ContextError(t *testing.T) {
	errNoContext := errors.New("no context available")
	compressor := &fakeCompressor{}
	s := NewSession(&staticSource{err: errNoContext}, compressor, ModeReuse, zap.NewNop())

	prompt, _, err := s.CompressOrReuse(context.Background(), "q")

	assert.ErrorIs(t, err, errNoContext)
	assert.Empty(t, prompt)
	assert.Empty(t, compressor.calls)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeReuse, m)

	m, err = ParseMode("recompress")
	require.NoError(t, err)
	assert.Equal(t, ModeRecompress, m)

	_, err = ParseMode("sometimes")
	assert.Error(t, err)
	assert.Equal(t, ModeReuse, NewSession(nil, nil, "", nil).Mode())
}
