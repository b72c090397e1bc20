package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/smartcard/internal/events"
	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
	"github.com/hongminglow/smartcard/internal/ratelimit"
	"github.com/hongminglow/smartcard/internal/storage"
)

// GiftCardHandler serves the signed-in user's gift cards.
type GiftCardHandler struct {
	store     storage.GiftCardStore
	publisher events.Publisher
	guard     Guard
	limiter   *ratelimit.Limiter
}

// NewGiftCardHandler constructs the handler.
func NewGiftCardHandler(store storage.GiftCardStore, publisher events.Publisher, guard Guard, limiter *ratelimit.Limiter) *GiftCardHandler {
	return &GiftCardHandler{store: store, publisher: publisher, guard: guard, limiter: limiter}
}

// Register attaches gift card routes. The short /get-gift-cards and
// /add-gift-card paths are what the gift card page calls.
func (h *GiftCardHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /get-gift-cards", h.guard.Private(h.limiter, h.handleList))
	mux.Handle("POST /add-gift-card", h.guard.Private(h.limiter, h.handleAdd))
	mux.Handle("GET /api/gift-cards", h.guard.Private(h.limiter, h.handleList))
	mux.Handle("POST /api/gift-cards", h.guard.Private(h.limiter, h.handleAdd))
	mux.Handle("PUT /api/gift-cards/{id}", h.guard.Private(h.limiter, h.handleUpdate))
	mux.Handle("DELETE /api/gift-cards/{id}", h.guard.Private(h.limiter, h.handleDelete))
}

func (h *GiftCardHandler) handleList(w http.ResponseWriter, r *http.Request) {
	cards, err := h.store.ListGiftCards(r.Context(), identity(r).UserID)
	if err != nil {
		log.Printf("list gift cards: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load gift cards")
		return
	}
	respond.JSON(w, http.StatusOK, dto.GiftCardListResponse{GiftCards: cards})
}

func (h *GiftCardHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	card, ok := decodeGiftCard(w, r)
	if !ok {
		return
	}
	card.ID = uuid.NewString()
	card.UserID = userID

	created, err := h.store.AddGiftCard(r.Context(), card)
	if err != nil {
		log.Printf("add gift card: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to add gift card")
		return
	}
	events.Emit(r.Context(), h.publisher, events.Event{
		Type:   events.GiftCardAdded,
		UserID: userID,
		Data:   map[string]any{"id": created.ID, "brand": created.Brand},
	})
	respond.JSON(w, http.StatusOK, dto.GiftCardResponse{Success: true, GiftCard: created})
}

func (h *GiftCardHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(w, http.StatusNotFound, "Gift card not found")
		return
	}
	card, ok := decodeGiftCard(w, r)
	if !ok {
		return
	}
	card.ID = id
	card.UserID = userID

	updated, err := h.store.UpdateGiftCard(r.Context(), card)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Gift card not found")
			return
		}
		log.Printf("update gift card %s: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to update gift card")
		return
	}
	events.Emit(r.Context(), h.publisher, events.Event{
		Type:   events.GiftCardUpdated,
		UserID: userID,
		Data:   map[string]any{"id": updated.ID},
	})
	respond.JSON(w, http.StatusOK, dto.GiftCardResponse{Success: true, GiftCard: updated})
}

func (h *GiftCardHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err == nil {
		if err := h.store.DeleteGiftCard(r.Context(), userID, id); err != nil {
			log.Printf("delete gift card %s: %v", id, err)
			respond.Error(w, http.StatusInternalServerError, "failed to delete gift card")
			return
		}
		events.Emit(r.Context(), h.publisher, events.Event{
			Type:   events.GiftCardDeleted,
			UserID: userID,
			Data:   map[string]any{"id": id},
		})
	}
	respond.Success(w, "")
}

// maxBalance is the first value that no longer fits the NUMERIC(12,2) column.
var maxBalance = decimal.New(1, 10)

// decodeGiftCard validates the request body and writes a 400 on failure.
// A balance must be present, numeric, not negative and below maxBalance.
func decodeGiftCard(w http.ResponseWriter, r *http.Request) (models.GiftCard, bool) {
	var req dto.GiftCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid gift card payload")
		return models.GiftCard{}, false
	}
	brand := strings.TrimSpace(req.Brand)
	if brand == "" || req.Balance == nil {
		respond.Error(w, http.StatusBadRequest, "brand and balance are required")
		return models.GiftCard{}, false
	}
	if req.Balance.IsNegative() {
		respond.Error(w, http.StatusBadRequest, "balance cannot be negative")
		return models.GiftCard{}, false
	}
	balance := req.Balance.Round(2)
	if balance.GreaterThanOrEqual(maxBalance) {
		respond.Error(w, http.StatusBadRequest, "invalid gift card payload")
		return models.GiftCard{}, false
	}
	return models.GiftCard{
		Brand:   brand,
		Balance: models.Amount{Decimal: balance},
		Notes:   strings.TrimSpace(req.Notes),
	}, true
}
