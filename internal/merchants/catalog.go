// Package merchants holds the merchant location catalog and the
// nearby-store queries used by the deals finder.
package merchants

import (
	"math"
	"sort"
	"strings"

	"github.com/hongminglow/smartcard/internal/models"
)

// Categories kept from the raw catalog; anything else is dropped on load.
var Categories = map[string]bool{
	"grocery":    true,
	"restaurant": true,
	"gas":        true,
	"pharmacy":   true,
	"retail":     true,
}

const earthRadiusMiles = 3959

// Catalog is an immutable set of merchant locations.
type Catalog struct {
	merchants []models.Merchant
}

// NewCatalog wraps merchants without further filtering.
func NewCatalog(merchants []models.Merchant) *Catalog {
	return &Catalog{merchants: merchants}
}

// Len reports the number of merchants.
func (c *Catalog) Len() int {
	return len(c.merchants)
}

// Query selects stores around a point.
type Query struct {
	Point         models.Coordinates
	RadiusMiles   float64
	Limit         int
	PopularChains []string
}

// Nearby returns merchants within the radius, popular chains first and then
// by distance, keeping only the first location of each store name.
func (c *Catalog) Nearby(q Query) []models.NearbyMerchant {
	var found []models.NearbyMerchant
	for _, m := range c.merchants {
		d := DistanceMiles(q.Point.Latitude, q.Point.Longitude, m.Lat, m.Lon)
		if d > q.RadiusMiles {
			continue
		}
		found = append(found, models.NearbyMerchant{
			Merchant:      m,
			DistanceMiles: d,
			Popular:       isPopular(m.Name, q.PopularChains),
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Popular != found[j].Popular {
			return found[i].Popular
		}
		return found[i].DistanceMiles < found[j].DistanceMiles
	})

	seen := make(map[string]bool, len(found))
	unique := make([]models.NearbyMerchant, 0, q.Limit)
	for _, m := range found {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		unique = append(unique, m)
		if len(unique) == q.Limit {
			break
		}
	}
	return unique
}

// Within returns every merchant within radiusMiles of point, nearest first.
// Unlike Nearby it keeps repeated store names.
func (c *Catalog) Within(point models.Coordinates, radiusMiles float64) []models.NearbyMerchant {
	found := []models.NearbyMerchant{}
	for _, m := range c.merchants {
		d := DistanceMiles(point.Latitude, point.Longitude, m.Lat, m.Lon)
		if d <= radiusMiles {
			found = append(found, models.NearbyMerchant{Merchant: m, DistanceMiles: d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].DistanceMiles < found[j].DistanceMiles
	})
	return found
}

func isPopular(name string, chains []string) bool {
	lower := strings.ToLower(name)
	for _, chain := range chains {
		if chain != "" && strings.Contains(lower, strings.ToLower(chain)) {
			return true
		}
	}
	return false
}

// DistanceMiles is the haversine great-circle distance between two points.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMiles * 2 * math.Asin(math.Sqrt(a))
}
