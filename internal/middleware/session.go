package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hams/portal-server-go/internal/audit"
	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/httputil"
	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/session"
	"github.com/hams/portal-server-go/internal/util"
)

const (
	// SessionCookie carries the opaque browser session token. The bearer
	// token from the hospital services never leaves the portal.
	SessionCookie    = "portal_session"
	SessionCookieAge = 24 * time.Hour
)

type contextKey string

const sessionContextKey contextKey = "portalSession"

// GetSession returns the authenticated session attached by the middleware,
// or nil outside a protected route.
func GetSession(ctx context.Context) *model.Session {
	if s, ok := ctx.Value(sessionContextKey).(*model.Session); ok {
		return s
	}
	return nil
}

// SessionMiddleware resolves the session cookie into a live session via
// the manager and attaches it to the request context. An expired session
// answers with SESSION_EXPIRED exactly as long as its notice is pending;
// everything else unauthenticated is a plain 401.
type SessionMiddleware struct {
	manager       *session.Manager
	sessionSecret string
	isProduction  bool
}

func NewSessionMiddleware(manager *session.Manager, sessionSecret string, isProduction bool) *SessionMiddleware {
	return &SessionMiddleware{
		manager:       manager,
		sessionSecret: sessionSecret,
		isProduction:  isProduction,
	}
}

// SessionKey derives the credential store key from the raw cookie value.
// The cookie token itself is never stored.
func (m *SessionMiddleware) SessionKey(cookieValue string) string {
	return util.HmacSHA256(m.sessionSecret, cookieValue)
}

// KeyFromRequest extracts the session store key from the request cookie,
// or "" when no cookie is present.
func (m *SessionMiddleware) KeyFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return m.SessionKey(cookie.Value)
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.KeyFromRequest(r)
		if key == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Not logged in"))
			return
		}

		sess, state, err := m.manager.Restore(r.Context(), key)
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeCorruptSession) {
				audit.LogFromRequest(r, audit.Event{Type: audit.EventSessionCorrupt})
				httputil.WriteError(w, err)
				return
			}
			log.Error().Err(err).Msg("session middleware: restore failed")
			httputil.WriteError(w, err)
			return
		}

		switch state {
		case model.SessionAuthenticated:
			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		case model.SessionExpired:
			// One-shot: the notice is consumed here, so the next
			// request sees a plain logged-out 401.
			if m.manager.ConsumeExpiredNotice(key) {
				audit.LogFromRequest(r, audit.Event{Type: audit.EventSessionExpired})
				httputil.WriteError(w, apperrors.SessionExpired())
				return
			}
			httputil.WriteError(w, apperrors.Unauthorized("Not logged in"))
		default:
			httputil.WriteError(w, apperrors.Unauthorized("Not logged in"))
		}
	})
}

// RequireRole gates a route subtree on the role carried by the token.
// The token's role claim is the authority; nothing client-asserted is
// consulted.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				httputil.WriteError(w, apperrors.Unauthorized("Not logged in"))
				return
			}
			if sess.Role != role {
				audit.LogFromRequest(r, audit.Event{
					Type:      audit.EventRoleDenied,
					SubjectID: sess.SubjectID,
					Role:      string(sess.Role),
				})
				httputil.WriteError(w, apperrors.Forbidden("Insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie issues a fresh opaque session token to the browser and
// returns the raw value so the caller can derive the store key.
func (m *SessionMiddleware) SetSessionCookie(w http.ResponseWriter) (string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionCookieAge.Seconds()),
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// ClearSessionCookie removes the session cookie.
func (m *SessionMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: http.SameSiteStrictMode,
	})
}
