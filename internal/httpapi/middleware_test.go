package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setupLimiter(t *testing.T, maxClients int) (*rateLimiter, *fakeClock, http.Handler) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(types.RateLimitConfig{RPS: 100, Burst: 100}, nil)
	rl.now = clock.now
	rl.maxClients = maxClients
	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return rl, clock, h
}

func hitFrom(t *testing.T, h http.Handler, addr string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, BasePath, nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl, clock, h := setupLimiter(t, limiterMaxClients)

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, hitFrom(t, h, fmt.Sprintf("10.0.0.%d:4000", i)))
	}
	assert.Equal(t, 100, rl.size())

	clock.advance(limiterIdleTTL / 2)
	hitFrom(t, h, "10.0.0.1:4000")
	assert.Equal(t, 100, rl.size(), "nothing is idle long enough yet")

	clock.advance(limiterIdleTTL)
	hitFrom(t, h, "10.0.1.1:4000")
	assert.Equal(t, 1, rl.size(), "only the newest client survives the sweep")
}

func TestRateLimiterCapsClients(t *testing.T) {
	rl, clock, h := setupLimiter(t, 10)

	for i := 0; i < 1000; i++ {
		clock.advance(time.Millisecond)
		require.Equal(t, http.StatusOK, hitFrom(t, h, fmt.Sprintf("192.0.2.%d:80", i)))
		require.LessOrEqual(t, rl.size(), 10)
	}
	assert.Equal(t, 10, rl.size())
}

func TestRateLimiterKeepsActiveBucket(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(types.RateLimitConfig{RPS: 1, Burst: 1}, nil)
	rl.now = clock.now
	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, hitFrom(t, h, "198.51.100.7:1"))
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(t, h, "198.51.100.7:2"),
		"the same host shares a bucket across ports")
	assert.Equal(t, 1, rl.size())
}
