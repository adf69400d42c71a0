// internal/identity/middleware.go
//
// Bearer-token verification middleware.
//
// Context
// -------
// Verifies the HMAC-signed JWT issued by the external identity provider
// and stashes the subject + email claims in the request context.  The
// scaffold never issues or refreshes tokens; a missing or invalid token
// is simply a 401 here, before tenant resolution runs.

package identity

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// claims is the subset of the provider's token this scaffold reads.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Middleware returns an http middleware that requires a valid bearer
// token and attaches the caller Identity to the request context.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			var cl claims
			tok, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !tok.Valid || cl.Subject == "" {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{Subject: cl.Subject, Email: cl.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearer extracts the token from the Authorization header.
func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"kind":"unauthorized","message":"` + msg + `"}}`))
}
