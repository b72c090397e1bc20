package dto

import "github.com/hongminglow/smartcard/internal/models"

// PaymentCardRequest leaves BaseRate nil when the field is absent.
type PaymentCardRequest struct {
	Name            string                 `json:"name"`
	Issuer          string                 `json:"issuer"`
	BaseRate        *float64               `json:"base_rate"`
	CategoryBonuses []models.CategoryBonus `json:"category_bonuses"`
}

// CardListResponse also reports whether location features are on, so the
// cards page can render its toggle from one request.
type CardListResponse struct {
	Cards           []models.PaymentCard `json:"cards"`
	LocationEnabled bool                 `json:"location_enabled"`
}

type CardResponse struct {
	Success bool               `json:"success"`
	Card    models.PaymentCard `json:"card"`
}

type LocationCheckRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// LocationCheckResponse carries a null recommendation when nothing applies.
type LocationCheckResponse struct {
	Success        bool                   `json:"success"`
	Recommendation *models.Recommendation `json:"recommendation"`
}
