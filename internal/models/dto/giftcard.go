package dto

import "github.com/hongminglow/smartcard/internal/models"

// GiftCardRequest leaves Balance nil when the field is absent.
type GiftCardRequest struct {
	Brand   string         `json:"brand"`
	Balance *models.Amount `json:"balance"`
	Notes   string         `json:"notes"`
}

type GiftCardListResponse struct {
	GiftCards []models.GiftCard `json:"gift_cards"`
}

type GiftCardResponse struct {
	Success  bool            `json:"success"`
	GiftCard models.GiftCard `json:"gift_card"`
}
