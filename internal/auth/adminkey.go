package auth

import (
	"crypto/subtle"
	"net/http"
)

// AdminKeyHeader carries the shared operator secret on admin routes.
const AdminKeyHeader = "x-admin-key"

// RequireAdminKey returns middleware that guards admin routes with a
// shared-secret header. The comparison is constant-time; missing or
// mismatched keys get a uniform 403 so probes learn nothing about the
// key's length or prefix.
func RequireAdminKey(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(AdminKeyHeader)
			if adminKey == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(adminKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"Forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
