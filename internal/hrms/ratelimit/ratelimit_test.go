package ratelimit

import (
	"net/http"
	"net/netip"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a", 2, time.Minute))
	assert.True(t, l.Allow("a", 2, time.Minute))
	assert.False(t, l.Allow("a", 2, time.Minute))
	assert.True(t, l.Allow("b", 2, time.Minute), "keys are independent")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, l.Allow("a", 2, time.Minute), "window expired")

	assert.True(t, l.Allow("c", 0, time.Minute), "zero limit disables limiting")
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(NewMemoryLimiter(), ClientIP, 1, 30*time.Second, zap.New(core))(next)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/applications", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)

	entries := logs.FilterMessage("Rate limit exceeded").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "10.0.0.1", entries[0].ContextMap()["client"])
	}
}

func TestMiddlewareWithoutLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Middleware(nil, ClientIP, 1, time.Second, zaptest.NewLogger(t))(next)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{name: "remote address", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded header ignored", forwarded: "203.0.113.5", remote: "198.51.100.7:80", want: "198.51.100.7"},
		{name: "remote without port", remote: "192.0.2.9", want: "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestForwardedClientIP(t *testing.T) {
	keyFn := ForwardedClientIP([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})

	tests := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{name: "direct caller spoofing the header", forwarded: "1.2.3.4", remote: "198.51.100.7:80", want: "198.51.100.7"},
		{name: "behind trusted proxy", forwarded: "203.0.113.5", remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "prepended entries skipped", forwarded: "1.2.3.4, 203.0.113.5", remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "chain of trusted proxies", forwarded: "203.0.113.5, 10.0.0.2", remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "trusted proxy without header", remote: "10.0.0.1:80", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, keyFn(req))
		})
	}
}

func TestMemoryLimiterSweepsExpiredBuckets(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		assert.True(t, l.Allow(key, 5, time.Minute))
	}
	assert.Len(t, l.buckets, 3)

	now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("d", 5, time.Minute))
	assert.Len(t, l.buckets, 1, "expired buckets are dropped")
	assert.Contains(t, l.buckets, "d")
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	var nilLimiter *RedisLimiter
	assert.True(t, nilLimiter.Allow("k", 1, time.Second))
	assert.Nil(t, NewRedisLimiter(nil, "hrms", zaptest.NewLogger(t)))

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLimiter(client, "hrms", zaptest.NewLogger(t))
	assert.True(t, l.Allow("k", 1, time.Second))
	assert.True(t, l.Allow("k", 1, time.Second))
}
