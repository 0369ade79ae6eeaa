package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Run("assigns a uuid", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()

		RequestID(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/system-map/nodes/x", nil)
	req.Header.Set("X-Organization-ID", "org_1")

	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/api/system-map/nodes/x", line["path"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "org_1", line["tenant"])
	assert.NotEmpty(t, line["request_id"])
}

func TestRateLimiter(t *testing.T) {
	t.Run("limits per tenant", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)
		defer rl.Stop()
		h := rl.Middleware(okHandler())

		send := func(tenant string) int {
			req := httptest.NewRequest(http.MethodGet, "/api/system-map", nil)
			req.Header.Set("X-Organization-ID", tenant)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec.Code
		}

		assert.Equal(t, http.StatusOK, send("org_1"))
		assert.Equal(t, http.StatusOK, send("org_1"))
		assert.Equal(t, http.StatusTooManyRequests, send("org_1"))
		assert.Equal(t, http.StatusOK, send("org_2"))
	})

	t.Run("rejection is a problem response", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 1)
		defer rl.Stop()
		h := rl.Middleware(okHandler())

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		rl := NewRateLimiter(0, 1)
		defer rl.Stop()
		h := rl.Middleware(okHandler())

		for range 5 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("sweep drops idle buckets", func(t *testing.T) {
		rl := NewRateLimiter(10, 10)
		defer rl.Stop()
		now := time.Now()
		rl.now = func() time.Time { return now }
		rl.limiter("tenant:org_1")

		now = now.Add(5 * time.Minute)
		rl.sweep()

		assert.Zero(t, rl.Len())
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		rl.Stop()
		rl.Stop()
	})
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "ip:10.0.0.7", clientKey(req))

	req.Header.Set("X-Organization-ID", "org_9")
	assert.Equal(t, "tenant:org_9", clientKey(req))

	req.Header.Set("X-Organization-ID", "org 9/"+strings.Repeat("x", 200))
	assert.Equal(t, "ip:10.0.0.7", clientKey(req))
}

func TestRateLimiterIgnoresMalformedTenants(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/system-map/", nil)
		req.RemoteAddr = "10.0.0.8:4000"
		req.Header.Set("X-Organization-ID", fmt.Sprintf("bad tenant %d", i))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, rl.Len())
}
