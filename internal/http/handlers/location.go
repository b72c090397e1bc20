package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/hongminglow/smartcard/internal/events"
	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
	"github.com/hongminglow/smartcard/internal/ratelimit"
	"github.com/hongminglow/smartcard/internal/storage"
)

// Recommender picks a card for the merchant closest to point. A nil
// recommendation means nothing applies.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, point models.Coordinates) (*models.Recommendation, error)
}

// LocationHandler serves the location toggle and the card check-in.
type LocationHandler struct {
	users       storage.UserStore
	recommender Recommender
	publisher   events.Publisher
	guard       Guard
	limiter     *ratelimit.Limiter
}

// NewLocationHandler constructs the handler.
func NewLocationHandler(users storage.UserStore, recommender Recommender, publisher events.Publisher, guard Guard, limiter *ratelimit.Limiter) *LocationHandler {
	return &LocationHandler{users: users, recommender: recommender, publisher: publisher, guard: guard, limiter: limiter}
}

// Register attaches location routes.
func (h *LocationHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/location/enable", h.guard.Private(h.limiter, h.handleEnable))
	mux.Handle("POST /api/location/check", h.guard.Private(h.limiter, h.handleCheck))
}

func (h *LocationHandler) handleEnable(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	if err := h.users.SetLocationEnabled(r.Context(), userID, true); err != nil {
		log.Printf("enable location for %d: %v", userID, err)
		respond.Error(w, http.StatusInternalServerError, "failed to enable location")
		return
	}
	respond.Success(w, "")
}

func (h *LocationHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respond.Error(w, http.StatusBadRequest, "Invalid location")
		return
	}
	point := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if point.Latitude < -90 || point.Latitude > 90 || point.Longitude < -180 || point.Longitude > 180 {
		respond.Error(w, http.StatusBadRequest, "Invalid location")
		return
	}

	userID := identity(r).UserID
	rec, err := h.recommender.Recommend(r.Context(), userID, point)
	if err != nil {
		log.Printf("recommend for %d: %v", userID, err)
		respond.Error(w, http.StatusInternalServerError, "failed to check location")
		return
	}
	data := map[string]any{"latitude": point.Latitude, "longitude": point.Longitude}
	if rec != nil {
		data["merchant"] = rec.Merchant.Name
		data["type"] = rec.Type
	}
	events.Emit(r.Context(), h.publisher, events.Event{Type: events.LocationChecked, UserID: userID, Data: data})
	respond.JSON(w, http.StatusOK, dto.LocationCheckResponse{Success: true, Recommendation: rec})
}
