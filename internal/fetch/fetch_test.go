package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	var gotUA, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"Accept-Language": "en"}

	result, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "text/html", result.ContentType)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "en", gotHeader)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
	assert.False(t, fetchErr.Timeout)
}

func TestURL_AcceptsAny2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", result.HTML)
}

func TestURL_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	_, err := URL(context.Background(), server.URL, opts)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, fetchErr.Timeout)
}

func TestURL_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxBodyBytes = 10

	result, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Len(t, result.HTML, 10)
}

func TestURL_LeavesCallerOptionsUnchanged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	opts := &Options{UserAgent: "test-agent"}
	_, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)

	assert.Zero(t, opts.Timeout)
	assert.Zero(t, opts.MaxBodyBytes)
}

func TestHTTPRenderer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<main>hello</main>"))
	}))
	defer server.Close()

	html, err := HTTPRenderer{}.Render(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<main>hello</main>", html)

	_, err = HTTPRenderer{}.Render(context.Background(), "::bad")
	assert.Error(t, err)
}

func TestNewBrowserRenderer_Defaults(t *testing.T) {
	r := NewBrowserRenderer(0, "bot")
	assert.Equal(t, 30*time.Second, r.Timeout)
	assert.Equal(t, "bot", r.UserAgent)
	assert.Contains(t, r.String(), "30s")
}

func TestError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &Error{URL: "http://x", Message: "HTTP request failed", Cause: cause}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "fetch error for http://x: HTTP request failed: context deadline exceeded", err.Error())
	assert.True(t, isTimeout(err))
}
