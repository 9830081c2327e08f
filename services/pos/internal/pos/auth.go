package pos

import (
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
)

// BearerAuth validates the Authorization header against the configured static
// staff tokens. Missing token is 401, unknown token is 403.
func BearerAuth(tokens []string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				apt.RespondError(w, http.StatusUnauthorized, "Bearer token required")
				return
			}

			valid := false
			for _, t := range tokens {
				if token == t {
					valid = true
					break
				}
			}

			if !valid {
				apt.RespondError(w, http.StatusForbidden, "Invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
