package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/metrics"
)

func withConfig(t *testing.T, mutate func(*config.Config)) {
	t.Helper()
	prev := config.Get()
	cfg := config.Default()
	mutate(cfg)
	config.Set(cfg)
	t.Cleanup(func() { config.Set(prev) })
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})
}

func TestClientIP(t *testing.T) {
	withConfig(t, func(c *config.Config) {
		c.TrustedProxies = []string{"10.0.0.0/8"}
	})

	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"direct client", "203.0.113.9:5000", "", "203.0.113.9"},
		{"untrusted peer ignores header", "203.0.113.9:5000", "198.51.100.7", "203.0.113.9"},
		{"trusted proxy", "10.1.2.3:5000", "198.51.100.7", "198.51.100.7"},
		{"chain of proxies", "10.1.2.3:5000", "198.51.100.7, 10.4.4.4", "198.51.100.7"},
		{"spoofed left entry", "10.1.2.3:5000", "1.1.1.1, 198.51.100.7", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientIP(req).String())
		})
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperr.CodeInternal, errorCode(t, rec))
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRateLimiter(t *testing.T) {
	withConfig(t, func(c *config.Config) {
		c.RateLimitRequests = 2
		c.RateLimitWindowSeconds = 60
	})

	limiter := NewRateLimiter()
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/", nil)
		if userID != "" {
			req = req.WithContext(identity.Set(req.Context(), &identity.Identity{UserID: userID}))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	before := testutil.ToFloat64(metrics.RateLimitHits)

	assert.Equal(t, http.StatusOK, request("alice").Code)
	assert.Equal(t, http.StatusOK, request("alice").Code)

	limited := request("alice")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, apperr.CodeRateLimited, errorCode(t, limited))
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitHits))

	// other users have their own budget
	assert.Equal(t, http.StatusOK, request("bob").Code)
}

func TestRateLimitKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"

	key, err := RateLimitKey(req)
	require.NoError(t, err)
	assert.Equal(t, "ip:203.0.113.9", key)

	req = req.WithContext(identity.Set(req.Context(), &identity.Identity{UserID: "u1"}))
	key, err = RateLimitKey(req)
	require.NoError(t, err)
	assert.Equal(t, "user:u1", key)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/meetings/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods("GET")

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/meetings/{id}", "202")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/meetings/abc", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
