package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hongminglow/smartcard/internal/events"
	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
	"github.com/hongminglow/smartcard/internal/ratelimit"
	"github.com/hongminglow/smartcard/internal/storage"
)

// CardHandler serves the signed-in user's payment cards.
type CardHandler struct {
	users     storage.UserStore
	cards     storage.PaymentCardStore
	publisher events.Publisher
	guard     Guard
	limiter   *ratelimit.Limiter
}

// NewCardHandler constructs the handler.
func NewCardHandler(users storage.UserStore, cards storage.PaymentCardStore, publisher events.Publisher, guard Guard, limiter *ratelimit.Limiter) *CardHandler {
	return &CardHandler{users: users, cards: cards, publisher: publisher, guard: guard, limiter: limiter}
}

// Register attaches payment card routes.
func (h *CardHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/cards", h.guard.Private(h.limiter, h.handleList))
	mux.Handle("POST /api/cards", h.guard.Private(h.limiter, h.handleAdd))
	mux.Handle("PUT /api/cards/{id}", h.guard.Private(h.limiter, h.handleUpdate))
	mux.Handle("DELETE /api/cards/{id}", h.guard.Private(h.limiter, h.handleDelete))
}

func (h *CardHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		log.Printf("find user %d: %v", userID, err)
		respond.Error(w, http.StatusInternalServerError, "failed to load cards")
		return
	}
	cards, err := h.cards.ListPaymentCards(r.Context(), userID)
	if err != nil {
		log.Printf("list payment cards: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load cards")
		return
	}
	if cards == nil {
		cards = []models.PaymentCard{}
	}
	respond.JSON(w, http.StatusOK, dto.CardListResponse{Cards: cards, LocationEnabled: user.LocationEnabled})
}

func (h *CardHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	card, ok := decodePaymentCard(w, r)
	if !ok {
		return
	}
	card.ID = uuid.NewString()
	card.UserID = userID

	created, err := h.cards.AddPaymentCard(r.Context(), card)
	if err != nil {
		log.Printf("add payment card: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to add card")
		return
	}
	events.Emit(r.Context(), h.publisher, events.Event{
		Type:   events.PaymentCardAdded,
		UserID: userID,
		Data:   map[string]any{"id": created.ID, "name": created.Name},
	})
	respond.JSON(w, http.StatusOK, dto.CardResponse{Success: true, Card: created})
}

func (h *CardHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(w, http.StatusNotFound, "Card not found")
		return
	}
	card, ok := decodePaymentCard(w, r)
	if !ok {
		return
	}
	card.ID = id
	card.UserID = userID

	updated, err := h.cards.UpdatePaymentCard(r.Context(), card)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Card not found")
			return
		}
		log.Printf("update payment card %s: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to update card")
		return
	}
	events.Emit(r.Context(), h.publisher, events.Event{
		Type:   events.PaymentCardUpdated,
		UserID: userID,
		Data:   map[string]any{"id": updated.ID},
	})
	respond.JSON(w, http.StatusOK, dto.CardResponse{Success: true, Card: updated})
}

func (h *CardHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err == nil {
		if err := h.cards.DeletePaymentCard(r.Context(), userID, id); err != nil {
			log.Printf("delete payment card %s: %v", id, err)
			respond.Error(w, http.StatusInternalServerError, "failed to delete card")
			return
		}
		events.Emit(r.Context(), h.publisher, events.Event{
			Type:   events.PaymentCardDeleted,
			UserID: userID,
			Data:   map[string]any{"id": id},
		})
	}
	respond.Success(w, "")
}

// decodePaymentCard validates the request body and writes a 400 on failure.
// Bonuses with a blank category are dropped.
func decodePaymentCard(w http.ResponseWriter, r *http.Request) (models.PaymentCard, bool) {
	var req dto.PaymentCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid card payload")
		return models.PaymentCard{}, false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respond.Error(w, http.StatusBadRequest, "name is required")
		return models.PaymentCard{}, false
	}
	card := models.PaymentCard{
		Name:            name,
		Issuer:          strings.TrimSpace(req.Issuer),
		CategoryBonuses: []models.CategoryBonus{},
	}
	if req.BaseRate != nil {
		card.BaseRate = *req.BaseRate
	}
	if card.BaseRate < 0 {
		respond.Error(w, http.StatusBadRequest, "rates cannot be negative")
		return models.PaymentCard{}, false
	}
	for _, b := range req.CategoryBonuses {
		category := strings.TrimSpace(b.Category)
		if category == "" {
			continue
		}
		if b.Rate < 0 {
			respond.Error(w, http.StatusBadRequest, "rates cannot be negative")
			return models.PaymentCard{}, false
		}
		card.CategoryBonuses = append(card.CategoryBonuses, models.CategoryBonus{Category: category, Rate: b.Rate})
	}
	return card, true
}
