package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hams/portal-server-go/internal/audit"
	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/httputil"
	"github.com/hams/portal-server-go/internal/redis"
	"github.com/hams/portal-server-go/internal/service"
)

const loginCleanupPeriod = 5 * time.Minute

// LoginRateLimiter throttles login attempts per client address. With redis
// available the sliding window is shared across instances; without it a
// per-process fixed window stands in.
type LoginRateLimiter struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration

	mu          sync.Mutex
	attempts    map[string]*loginAttempt
	lastCleanup time.Time
}

type loginAttempt struct {
	count       int
	windowStart time.Time
}

func NewLoginRateLimiter(limiter *service.RateLimiter, limit int, window time.Duration) *LoginRateLimiter {
	return &LoginRateLimiter{
		limiter:     limiter,
		limit:       limit,
		window:      window,
		attempts:    make(map[string]*loginAttempt),
		lastCleanup: time.Now(),
	}
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := audit.ClientIP(r)

		allowed, resetAt := l.allow(r, ip)
		if !allowed {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			retry := int(time.Until(resetAt).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *LoginRateLimiter) allow(r *http.Request, ip string) (bool, time.Time) {
	if l.limiter != nil {
		return l.limiter.Allow(r.Context(), redis.LoginAttemptKey(ip))
	}
	return l.allowLocal(ip)
}

func (l *LoginRateLimiter) allowLocal(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.cleanupLocked(now)

	attempt, ok := l.attempts[ip]
	if !ok || now.Sub(attempt.windowStart) > l.window {
		l.attempts[ip] = &loginAttempt{count: 1, windowStart: now}
		return true, now.Add(l.window)
	}

	attempt.count++
	if attempt.count > l.limit {
		return false, attempt.windowStart.Add(l.window)
	}
	return true, attempt.windowStart.Add(l.window)
}

func (l *LoginRateLimiter) cleanupLocked(now time.Time) {
	if now.Sub(l.lastCleanup) < loginCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for ip, attempt := range l.attempts {
		if now.Sub(attempt.windowStart) > l.window {
			delete(l.attempts, ip)
		}
	}
}
