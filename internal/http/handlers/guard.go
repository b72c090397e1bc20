package handlers

import (
	"net/http"

	"github.com/hongminglow/smartcard/internal/auth"
	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/middleware"
	"github.com/hongminglow/smartcard/internal/ratelimit"
)

// Guard composes the session and rate-limit checks shared by routes.
type Guard struct {
	tokens *auth.TokenManager
}

// NewGuard creates a Guard that validates sessions with tokens.
func NewGuard(tokens *auth.TokenManager) Guard {
	return Guard{tokens: tokens}
}

// Public rate limits an unauthenticated route by caller IP.
func (g Guard) Public(limiter *ratelimit.Limiter, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(limiter, h)
}

// Private requires a session, then rate limits by the caller's email.
func (g Guard) Private(limiter *ratelimit.Limiter, h http.HandlerFunc) http.Handler {
	return auth.RequireSession(g.tokens, unauthorized, middleware.RateLimit(limiter, h))
}

// Session requires a session without rate limiting.
func (g Guard) Session(h http.HandlerFunc) http.Handler {
	return auth.RequireSession(g.tokens, unauthorized, h)
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusUnauthorized, "Authentication required")
}

// identity is only called behind Private or Session, which guarantee it is set.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
