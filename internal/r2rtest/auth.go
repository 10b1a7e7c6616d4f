package r2rtest

import (
	"net/http"
	"strings"
)

// WithBearerTokens makes every route except /health require one of tokens
// in an "Authorization: Bearer ..." header.
func WithBearerTokens(tokens ...string) Option {
	return func(s *Server) { s.tokens = tokens }
}

// bearerAuth rejects requests without a valid token. Empty tokens disable it.
func bearerAuth(tokens []string) func(http.Handler) http.Handler {
	valid := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			valid[t] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimPrefix(r.URL.Path, Prefix) == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			auth := r.Header.Get("Authorization")
			switch {
			case auth == "":
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
				return
			case !strings.HasPrefix(auth, bearerPrefix):
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid authentication scheme"})
				return
			}
			if _, ok := valid[auth[len(bearerPrefix):]]; !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
