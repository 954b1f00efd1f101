package http

import (
	"context"
	"net/http"
)

// Authentication happens at the edge; the gateway forwards the verified
// caller in these headers.
const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"

	roleAdmin = "admin"
)

type identityKey struct{}

type identity struct {
	UserID string
	Role   string
}

// WithIdentity extracts the forwarded caller identity into the request
// context. Requests without the header pass through anonymous; handlers
// that need a caller reject them.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity{
			UserID: r.Header.Get(userIDHeader),
			Role:   r.Header.Get(userRoleHeader),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func callerFrom(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey{}).(identity)
	if !ok || id.UserID == "" {
		return identity{}, false
	}
	return id, true
}

func (id identity) admin() bool {
	return id.Role == roleAdmin
}

// requireCaller writes a 401 and returns false when no identity was
// forwarded.
func requireCaller(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id, ok := callerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "caller identity required")
		return identity{}, false
	}
	return id, true
}

// requireAdmin writes a 401 or 403 and returns false unless the caller is
// an admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id, ok := requireCaller(w, r)
	if !ok {
		return identity{}, false
	}
	if !id.admin() {
		writeError(w, http.StatusForbidden, codeForbidden, "admin role required")
		return identity{}, false
	}
	return id, true
}
