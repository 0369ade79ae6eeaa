package handlers

import (
	"context"
	"net/http"
	"regexp"
)

const TenantHeader = "X-Organization-ID"

type tenantKey struct{}

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// ValidTenantID reports whether id is an acceptable X-Organization-ID value.
func ValidTenantID(id string) bool {
	return tenantPattern.MatchString(id)
}

func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

func TenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey{}).(string)
	return id
}

// RequireTenant rejects requests without a well-formed X-Organization-ID
// and stores the tenant in the request context.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TenantHeader)
		if id == "" {
			WriteError(w, r, http.StatusUnauthorized, "Missing "+TenantHeader+" header")
			return
		}
		if !ValidTenantID(id) {
			WriteBadRequest(w, r, "Malformed "+TenantHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), id)))
	})
}
