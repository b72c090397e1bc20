package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hongminglow/smartcard/internal/events"
	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
	"github.com/hongminglow/smartcard/internal/ratelimit"
)

// DealFinder returns per-store deals around a point.
type DealFinder interface {
	Find(ctx context.Context, point models.Coordinates) []models.StoreResult
}

// DealsHandler serves the find-deals endpoint.
type DealsHandler struct {
	finder    DealFinder
	publisher events.Publisher
	guard     Guard
	limiter   *ratelimit.Limiter
}

// NewDealsHandler constructs the handler. limiter should be the stricter
// deals budget, since every search calls the generative backend.
func NewDealsHandler(finder DealFinder, publisher events.Publisher, guard Guard, limiter *ratelimit.Limiter) *DealsHandler {
	return &DealsHandler{finder: finder, publisher: publisher, guard: guard, limiter: limiter}
}

// Register attaches the deals route.
func (h *DealsHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/deals/find", h.guard.Private(h.limiter, h.handleFind))
}

func (h *DealsHandler) handleFind(w http.ResponseWriter, r *http.Request) {
	var req dto.FindDealsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respond.Error(w, http.StatusBadRequest, "Location required")
		return
	}
	point := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if point.Latitude < -90 || point.Latitude > 90 || point.Longitude < -180 || point.Longitude > 180 {
		respond.Error(w, http.StatusBadRequest, "Invalid location")
		return
	}

	stores := h.finder.Find(r.Context(), point)
	events.Emit(r.Context(), h.publisher, events.Event{
		Type:   events.DealsSearched,
		UserID: identity(r).UserID,
		Data:   map[string]any{"latitude": point.Latitude, "longitude": point.Longitude, "stores": len(stores)},
	})
	respond.JSON(w, http.StatusOK, dto.FindDealsResponse{Success: true, Stores: stores})
}
