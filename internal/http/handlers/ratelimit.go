package handlers

import (
	"net/http"

	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/middleware"
	"github.com/hongminglow/smartcard/internal/models/dto"
	"github.com/hongminglow/smartcard/internal/ratelimit"
)

// RateLimitHandler reports the caller's remaining request budget.
type RateLimitHandler struct {
	guard   Guard
	limiter *ratelimit.Limiter
}

// NewRateLimitHandler reports on limiter, which should be the default budget.
func NewRateLimitHandler(guard Guard, limiter *ratelimit.Limiter) *RateLimitHandler {
	return &RateLimitHandler{guard: guard, limiter: limiter}
}

// Register attaches the status route. It is not itself rate limited.
func (h *RateLimitHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/rate-limit/status", h.guard.Session(h.handleStatus))
}

func (h *RateLimitHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	s := h.limiter.Status(middleware.CallerKey(r))
	respond.JSON(w, http.StatusOK, dto.RateLimitStatusResponse{
		Success: true,
		RateLimit: dto.RateLimitStatus{
			Remaining: s.Remaining,
			Limit:     s.Limit,
			Window:    int(h.limiter.Window().Seconds()),
			ResetIn:   int(s.ResetIn.Seconds()),
		},
	})
}
