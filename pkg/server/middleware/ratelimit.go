package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/httprate"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/metrics"
)

// RateLimiter throttles requests per authenticated user, falling back to
// the client IP. Limits follow the live configuration: the underlying
// limiter is rebuilt when rate_limit_requests or the window change.
type RateLimiter struct {
	mu       sync.Mutex
	requests int
	window   time.Duration
	limit    func(http.Handler) http.Handler
}

// NewRateLimiter creates a rate limiter reading its limits from config.Get.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{}
}

// RateLimitKey keys requests by user ID when authenticated and by client IP
// otherwise.
func RateLimitKey(r *http.Request) (string, error) {
	if id, ok := identity.Get(r.Context()); ok && id.UserID != "" {
		return "user:" + id.UserID, nil
	}
	if ip := ClientIP(r); ip != nil {
		return "ip:" + ip.String(), nil
	}
	return "ip:" + r.RemoteAddr, nil
}

func onLimit(window time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimitHits.Inc()
		apperr.Write(w, r, apperr.RateLimited(window))
	}
}

func (l *RateLimiter) current() func(http.Handler) http.Handler {
	cfg := config.Get()
	window := cfg.RateLimitWindow()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit == nil || l.requests != cfg.RateLimitRequests || l.window != window {
		l.requests = cfg.RateLimitRequests
		l.window = window
		l.limit = httprate.Limit(
			l.requests,
			l.window,
			httprate.WithKeyFuncs(RateLimitKey),
			httprate.WithLimitHandler(onLimit(window)),
		)
	}
	return l.limit
}

// Middleware returns the rate limiting middleware
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.current()(next).ServeHTTP(w, r)
	})
}
