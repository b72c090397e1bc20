// Package deals assembles per-store deal results for a location.
package deals

import (
	"context"
	"log"

	"github.com/hongminglow/smartcard/internal/config"
	"github.com/hongminglow/smartcard/internal/dealsource"
	"github.com/hongminglow/smartcard/internal/merchants"
	"github.com/hongminglow/smartcard/internal/models"
)

// StoreErrorMessage is attached to a store whose live deals failed to load.
const StoreErrorMessage = "Live deals are unavailable for this store right now"

// Service finds nearby stores and collects their deals.
type Service struct {
	catalog *merchants.Catalog
	source  dealsource.Source
	tuning  config.DealsTuning
}

// NewService creates a Service.
func NewService(catalog *merchants.Catalog, source dealsource.Source, tuning config.DealsTuning) *Service {
	return &Service{catalog: catalog, source: source, tuning: tuning}
}

// Find returns one StoreResult per selected store, in ranking order. It
// returns an empty, non-nil slice when no store is in range. Stores are
// queried one after another.
func (s *Service) Find(ctx context.Context, point models.Coordinates) []models.StoreResult {
	stores := s.catalog.Nearby(merchants.Query{
		Point:         point,
		RadiusMiles:   s.tuning.RadiusMiles,
		Limit:         s.tuning.StoreLimit,
		PopularChains: s.tuning.PopularChains,
	})

	results := make([]models.StoreResult, 0, len(stores))
	for _, store := range stores {
		result := models.StoreResult{Store: store.Name}
		deals, err := s.source.Deals(ctx, store.Name, store.Category, s.tuning.DealsPerStore)
		if err != nil {
			log.Printf("deals: fetch for %s: %v", store.Name, err)
			result.Deals = dealsource.UnavailableDeals(store.Name, store.Category)
			result.Error = StoreErrorMessage
		} else {
			result.Deals = deals
		}
		results = append(results, result)
	}
	return results
}
