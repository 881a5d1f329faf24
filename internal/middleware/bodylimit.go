package middleware

import (
	"net/http"
)

const maxRequestBody = 1 << 20 // 1MB

// BodyLimit rejects oversized payloads up front and caps reads on the
// rest. Portal payloads are small JSON bodies; anything near the cap is abuse.
func BodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.ContentLength > maxRequestBody {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "Request body too large",
			})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}
