// Package recommend picks which card to pay with at the closest merchant.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/hongminglow/smartcard/internal/config"
	"github.com/hongminglow/smartcard/internal/merchants"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/storage"
)

// Service combines the merchant catalog with a user's saved cards.
type Service struct {
	catalog   *merchants.Catalog
	giftCards storage.GiftCardStore
	cards     storage.PaymentCardStore
	tuning    config.RecommendTuning
}

// NewService creates a Service.
func NewService(catalog *merchants.Catalog, giftCards storage.GiftCardStore, cards storage.PaymentCardStore, tuning config.RecommendTuning) *Service {
	return &Service{catalog: catalog, giftCards: giftCards, cards: cards, tuning: tuning}
}

// Recommend returns nil when no merchant is in range or the user has nothing
// to pay with. A gift card for the merchant with money left on it always
// wins over a payment card.
func (s *Service) Recommend(ctx context.Context, userID int64, point models.Coordinates) (*models.Recommendation, error) {
	nearby := s.catalog.Within(point, s.tuning.RadiusMiles)
	if len(nearby) == 0 {
		return nil, nil
	}
	closest := nearby[0]

	giftCards, err := s.giftCards.ListGiftCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list gift cards: %w", err)
	}
	if gc, ok := matchGiftCard(giftCards, closest.Name); ok {
		return &models.Recommendation{
			Type:      models.RecommendGiftCard,
			GiftCard:  &gc,
			Merchant:  closest,
			AllNearby: nearby,
			Location:  point,
			Message:   fmt.Sprintf("Use your %s gift card!", gc.Brand),
		}, nil
	}

	cards, err := s.cards.ListPaymentCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment cards: %w", err)
	}
	if len(cards) == 0 {
		return nil, nil
	}

	rec := &models.Recommendation{
		Type:      models.RecommendCreditCard,
		Merchant:  closest,
		AllNearby: nearby,
		Location:  point,
	}
	for i := range cards {
		rate := cards[i].RateFor(closest.Category)
		if rate > rec.Rate {
			rec.Card = &cards[i]
			rec.Rate = rate
		}
	}
	return rec, nil
}

// matchGiftCard finds the first card whose brand and the merchant name
// contain one another, ignoring case.
func matchGiftCard(cards []models.GiftCard, merchant string) (models.GiftCard, bool) {
	name := strings.ToLower(merchant)
	for _, gc := range cards {
		brand := strings.ToLower(strings.TrimSpace(gc.Brand))
		if brand == "" || !gc.Balance.IsPositive() {
			continue
		}
		if strings.Contains(name, brand) || strings.Contains(brand, name) {
			return gc, true
		}
	}
	return models.GiftCard{}, false
}
