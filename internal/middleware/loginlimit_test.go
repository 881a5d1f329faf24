package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimiterLocal(t *testing.T) {
	t.Run("attempts over the limit are refused until the window rolls", func(t *testing.T) {
		l := NewLoginRateLimiter(nil, 3, 50*time.Millisecond)

		start := time.Now()
		for i := 0; i < 3; i++ {
			allowed, _ := l.allowLocal("10.0.0.1")
			assert.True(t, allowed, "attempt %d should pass", i+1)
		}

		allowed, resetAt := l.allowLocal("10.0.0.1")
		assert.False(t, allowed)
		assert.WithinDuration(t, start.Add(50*time.Millisecond), resetAt, 20*time.Millisecond)

		time.Sleep(60 * time.Millisecond)
		allowed, _ = l.allowLocal("10.0.0.1")
		assert.True(t, allowed, "a fresh window should admit again")
	})

	t.Run("addresses count independently", func(t *testing.T) {
		l := NewLoginRateLimiter(nil, 1, time.Minute)

		allowed, _ := l.allowLocal("10.0.0.1")
		require.True(t, allowed)
		allowed, _ = l.allowLocal("10.0.0.1")
		require.False(t, allowed)

		allowed, _ = l.allowLocal("10.0.0.2")
		assert.True(t, allowed)
	})

	t.Run("handler answers 429 with a retry hint", func(t *testing.T) {
		l := NewLoginRateLimiter(nil, 1, time.Minute)
		h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:4000"

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		retry := rec.Header().Get("Retry-After")
		require.NotEmpty(t, retry)
		assert.NotEqual(t, "0", retry)
	})
}
