package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg *Config) (*Limiter, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	l.now = c.now
	return l, c
}

func TestTokenBucket_BurstThenDeny(t *testing.T) {
	now := time.Now()
	bucket := newTokenBucket(3, 1.0, now)

	for i := 0; i < 3; i++ {
		allowed, _, _ := bucket.take(now)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, remaining, full := bucket.take(now)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.Equal(t, now.Add(3*time.Second), full)
}

func TestTokenBucket_Refill(t *testing.T) {
	now := time.Now()
	bucket := newTokenBucket(2, 1.0, now)
	bucket.take(now)
	bucket.take(now)

	allowed, _, _ := bucket.take(now.Add(1100 * time.Millisecond))
	assert.True(t, allowed)
	allowed, _, _ = bucket.take(now.Add(1200 * time.Millisecond))
	assert.False(t, allowed)
}

func TestLimiter_ChatLimit(t *testing.T) {
	l, c := newTestLimiter(NewConfig(true, 60))
	defer l.Stop()

	// Burst is a sixth of the per-minute limit.
	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("10.0.0.1", "/chat", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 60, info.Limit)
	}
	allowed, info := l.Allow("10.0.0.1", "/chat", "POST")
	assert.False(t, allowed)
	assert.Equal(t, time.Second, info.RetryAfter)

	// Other clients have their own bucket.
	allowed, _ = l.Allow("10.0.0.2", "/chat", "POST")
	assert.True(t, allowed)

	c.advance(time.Second)
	allowed, _ = l.Allow("10.0.0.1", "/chat", "POST")
	assert.True(t, allowed)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	l, _ := newTestLimiter(NewConfig(true, 1))
	defer l.Stop()

	for i := 0; i < 1000; i++ {
		allowed, _ := l.Allow("ip", "/health", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, l.Len())
}

func TestLimiter_DisabledAndWhitelist(t *testing.T) {
	disabled, _ := newTestLimiter(NewConfig(false, 1))
	for i := 0; i < 5; i++ {
		allowed, _ := disabled.Allow("ip", "/chat", "POST")
		assert.True(t, allowed)
	}

	cfg := NewConfig(true, 1)
	cfg.Whitelist["127.0.0.1"] = true
	l, _ := newTestLimiter(cfg)
	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("127.0.0.1", "/chat", "POST")
		assert.True(t, allowed)
	}

	assert.True(t, NewLimiter(nil).config != nil)
}

func TestLimiter_Cleanup(t *testing.T) {
	l, c := newTestLimiter(NewConfig(true, 30))
	l.Allow("a", "/chat", "POST")
	c.advance(30 * time.Minute)
	l.Allow("b", "/chat", "POST")
	require.Equal(t, 2, l.Len())

	c.advance(45 * time.Minute)
	l.cleanup()

	assert.Equal(t, 1, l.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(&Config{
		Enabled:         true,
		EndpointConfigs: []EndpointConfig{{Path: "/chat", Method: "POST", Limit: 50, Window: time.Hour}},
	})
	defer l.Stop()

	var allowedCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("ip", "/chat", "POST"); ok {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), allowedCount.Load())
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/chat", Method: "POST", Limit: 1},
		{Path: "/admin/", Method: "POST", Limit: 2},
	}

	assert.Equal(t, 1, MatchEndpoint("/chat", "POST", configs).Limit)
	assert.Equal(t, 2, MatchEndpoint("/admin/reload", "POST", configs).Limit)
	assert.Nil(t, MatchEndpoint("/chat", "GET", configs))
	assert.Zero(t, MatchEndpoint("/health", "GET", configs).Limit)
}
