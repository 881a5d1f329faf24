package middleware

import (
	"net/http"

	"github.com/hams/portal-server-go/internal/audit"
	"github.com/hams/portal-server-go/internal/util"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFMiddleware protects state-changing requests with the double-submit
// cookie pattern: the token cookie is readable by page script, the same
// value must come back in the X-CSRF-Token header, and for POST, PUT,
// PATCH and DELETE the two must match.
type CSRFMiddleware struct {
	isProduction bool
}

func NewCSRFMiddleware(isProduction bool) *CSRFMiddleware {
	return &CSRFMiddleware{isProduction: isProduction}
}

func (m *CSRFMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" {
			token, err := util.GenerateToken()
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "Failed to generate security token",
				})
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				Secure:   m.isProduction,
				SameSite: http.SameSiteStrictMode,
			})
			cookie = &http.Cookie{Value: token}
		}

		if !isSafeMethod(r.Method) {
			header := r.Header.Get(CSRFHeaderName)
			if header == "" || !util.ConstantTimeEqual(header, cookie.Value) {
				audit.LogFromRequest(r, audit.Event{Type: audit.EventCSRFFailure})
				writeJSON(w, http.StatusForbidden, map[string]string{
					"error": "CSRF token mismatch",
				})
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}
