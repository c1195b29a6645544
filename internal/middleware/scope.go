package middleware

import (
	"net/http"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/model"
)

// RequireScope admits requests whose identity holds any of the given scopes.
// Admin holds every scope. Must run after Auth.
func RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := auth.FromContext(r.Context())
			if a == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			for _, s := range scopes {
				if a.HasScope(s) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions. Required scope: "+scopes[0])
		})
	}
}

// RequireRead admits identities with the read scope.
func RequireRead() func(http.Handler) http.Handler { return RequireScope(model.ScopeRead) }

// RequireWrite admits identities with the write scope.
func RequireWrite() func(http.Handler) http.Handler { return RequireScope(model.ScopeWrite) }

// RequireAdmin admits identities with the admin scope.
func RequireAdmin() func(http.Handler) http.Handler { return RequireScope(model.ScopeAdmin) }
