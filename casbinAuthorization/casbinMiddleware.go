package casbinAuthorization

import (
	"log"
	"net/http"

	"github.com/casbin/casbin"

	"github.com/yijiasang/glamap/authorization"
)

// extractUserType classifies the request for route-level policy: the
// userType claim of a valid token, or "Unauthenticated" otherwise. Ownership
// and admin checks inside the services stay authoritative; this layer only
// fences whole route groups.
func extractUserType(r *http.Request) string {
	principal, err := authorization.ExtractPrincipal(r)
	if err != nil {
		return "Unauthenticated"
	}
	return principal.UserType
}

func CasbinMiddleware(e *casbin.Enforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			userRole := extractUserType(r)

			res, err := e.EnforceSafe(userRole, r.URL.Path, r.Method)
			if err != nil {
				log.Println("enforce error:", err)
				http.Error(w, "unauthorized user", http.StatusUnauthorized)
				return
			}

			if res {
				next.ServeHTTP(w, r)
				return
			}

			if userRole == "Unauthenticated" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		}

		return http.HandlerFunc(fn)
	}
}
