package models

// Coordinates is a point reported by the browser or a device.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StoreResult groups the deals found for a single store. Deals and Error
// may each be absent.
type StoreResult struct {
	Store string   `json:"store"`
	Deals []string `json:"deals,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Merchant is a physical store location from the merchant catalog.
type Merchant struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// NearbyMerchant is a Merchant annotated with its distance from a query point.
type NearbyMerchant struct {
	Merchant
	DistanceMiles float64 `json:"distance"`
	Popular       bool    `json:"is_popular"`
}
