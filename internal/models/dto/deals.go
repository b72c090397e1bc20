package dto

import "github.com/hongminglow/smartcard/internal/models"

// FindDealsRequest uses pointers so a missing coordinate can be told apart
// from a zero one.
type FindDealsRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// FindDealsResponse always carries "stores" so a successful empty search
// reads as an empty list rather than a missing one.
type FindDealsResponse struct {
	Success bool                 `json:"success"`
	Stores  []models.StoreResult `json:"stores"`
	Error   string               `json:"error,omitempty"`
}

type RateLimitStatus struct {
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
	Window    int `json:"window"`
	ResetIn   int `json:"reset_in"`
}

type RateLimitStatusResponse struct {
	Success   bool            `json:"success"`
	RateLimit RateLimitStatus `json:"rate_limit"`
}
