package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/domain"
)

// RequireTenant resolves the X-Api-Key header into a tenant and stashes
// it in the request context. Requests without a resolvable credential are
// rejected before reaching the handler.
func RequireTenant(resolver auth.TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, err := resolver.Resolve(r.Context(), r.Header.Get("X-Api-Key"))
			if err != nil {
				status := http.StatusInternalServerError
				switch {
				case domain.IsAuth(err):
					status = http.StatusUnauthorized
				case domain.IsConflict(err):
					status = http.StatusServiceUnavailable
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}

			ctx := auth.ContextWithTenantID(r.Context(), tenant.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
