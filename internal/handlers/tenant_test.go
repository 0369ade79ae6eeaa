package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireTenant(t *testing.T) {
	var seen string
	h := RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TenantID(r.Context())
	}))

	cases := []struct {
		header string
		status int
	}{
		{"org_1", http.StatusOK},
		{"", http.StatusUnauthorized},
		{"org 1", http.StatusBadRequest},
		{"../etc", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/system-map", nil)
			if tc.header != "" {
				req.Header.Set(TenantHeader, tc.header)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.header, seen)
			} else {
				assert.Empty(t, seen)
			}
		})
	}
}

func TestValidTenantID(t *testing.T) {
	assert.True(t, ValidTenantID("org_1"))
	assert.True(t, ValidTenantID("tenant:eu-west.1"))
	assert.False(t, ValidTenantID(""))
	assert.False(t, ValidTenantID("org/1"))
	assert.False(t, ValidTenantID(strings.Repeat("a", 129)))
}
