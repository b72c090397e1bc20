package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/hongminglow/smartcard/internal/auth"
	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/ratelimit"
)

// RateLimit applies limiter per caller. Signed-in callers are keyed by
// email, everyone else by remote IP.
func RateLimit(limiter *ratelimit.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := limiter.Allow(CallerKey(r))
		if !d.Allowed {
			respond.JSON(w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"error":   "Rate limit exceeded",
				"rate_limit": map[string]int{
					"remaining": 0,
					"limit":     d.Limit,
					"reset_in":  int(d.ResetIn.Seconds()),
				},
			})
			return
		}
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.Itoa(int(d.ResetIn.Seconds())))
		next.ServeHTTP(w, r)
	})
}

// CallerKey identifies the caller for rate limiting purposes.
func CallerKey(r *http.Request) string {
	if id, ok := auth.FromContext(r.Context()); ok && id.Email != "" {
		return id.Email
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
