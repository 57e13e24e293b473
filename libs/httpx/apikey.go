package httpx

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RequireAPIKey gates a handler behind a bearer key checked against a bcrypt hash.
// An empty hash disables the handler entirely.
func RequireAPIKey(hash string) Middleware {
	hash = strings.TrimSpace(hash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				WriteError(w, http.StatusServiceUnavailable, "admin access not configured")
				return
			}
			key, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				WriteError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(auth[7:])
	return token, token != ""
}
