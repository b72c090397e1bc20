package models

import (
	"strings"
	"time"
)

// CategoryBonus is an elevated reward rate for one merchant category.
type CategoryBonus struct {
	Category string  `json:"category"`
	Rate     float64 `json:"rate"`
}

// PaymentCard is a credit or debit card the user wants recommendations for.
// Rates are reward percentages or points multipliers.
type PaymentCard struct {
	ID              string          `json:"id"`
	UserID          int64           `json:"-"`
	Name            string          `json:"name"`
	Issuer          string          `json:"issuer,omitempty"`
	BaseRate        float64         `json:"base_rate"`
	CategoryBonuses []CategoryBonus `json:"category_bonuses"`
	AddedDate       time.Time       `json:"added_date"`
}

// RateFor returns the bonus rate for category, or the base rate when the
// card has no bonus there.
func (c PaymentCard) RateFor(category string) float64 {
	for _, b := range c.CategoryBonuses {
		if strings.EqualFold(b.Category, category) {
			if b.Rate == 0 {
				break
			}
			return b.Rate
		}
	}
	return c.BaseRate
}

// Recommendation kinds.
const (
	RecommendGiftCard   = "gift_card"
	RecommendCreditCard = "credit_card"
)

// Recommendation tells the user which card to pay with at the nearest
// merchant.
type Recommendation struct {
	Type      string           `json:"type"`
	GiftCard  *GiftCard        `json:"gift_card,omitempty"`
	Card      *PaymentCard     `json:"card,omitempty"`
	Rate      float64          `json:"rate,omitempty"`
	Merchant  NearbyMerchant   `json:"merchant"`
	AllNearby []NearbyMerchant `json:"all_nearby"`
	Location  Coordinates      `json:"location"`
	Message   string           `json:"message,omitempty"`
}
