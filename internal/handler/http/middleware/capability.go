package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/jwt"
)

// RequireCapability allows the request only when the caller holds capability
// on module, after role defaults and per-user overrides are applied.
func RequireCapability(authorizer permission.Authorizer, module permission.Module, capability permission.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := jwt.CallerFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			if err := authorizer.Authorize(r.Context(), caller, module, capability); err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
