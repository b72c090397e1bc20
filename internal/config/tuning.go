package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning controls how deals are searched and how hard clients may call.
type Tuning struct {
	Deals      DealsTuning     `yaml:"deals"`
	Recommend  RecommendTuning `yaml:"recommend"`
	RateLimits RateLimits      `yaml:"rate_limits"`
}

// RecommendTuning bounds the merchant lookup behind card recommendations.
type RecommendTuning struct {
	RadiusMiles float64 `yaml:"radius_miles"`
}

// DealsTuning shapes the nearby-store search.
type DealsTuning struct {
	RadiusMiles   float64  `yaml:"radius_miles"`
	StoreLimit    int      `yaml:"store_limit"`
	DealsPerStore int      `yaml:"deals_per_store"`
	PopularChains []string `yaml:"popular_chains"`
}

// RateLimits are requests allowed per Window for each route group.
type RateLimits struct {
	Window  time.Duration `yaml:"window"`
	Default int           `yaml:"default"`
	Auth    int           `yaml:"auth"`
	Deals   int           `yaml:"deals"`
}

// DefaultTuning mirrors the values the product launched with.
func DefaultTuning() Tuning {
	return Tuning{
		Deals: DealsTuning{
			RadiusMiles:   5,
			StoreLimit:    3,
			DealsPerStore: 5,
			PopularChains: []string{
				"walmart", "target", "costco", "kroger", "safeway", "whole foods",
				"cvs", "walgreens", "best buy", "home depot", "lowe's", "macy",
				"starbucks", "mcdonalds", "chipotle", "panera", "olive garden",
			},
		},
		RateLimits: RateLimits{
			Window:  time.Minute,
			Default: 10,
			Auth:    5,
			Deals:   5,
		},
		Recommend: RecommendTuning{RadiusMiles: 2},
	}
}

// LoadTuning overlays the YAML file at path on DefaultTuning. An empty path
// returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if t.Deals.RadiusMiles <= 0 || t.Deals.StoreLimit <= 0 || t.Deals.DealsPerStore <= 0 {
		return Tuning{}, fmt.Errorf("tuning file %s: deals radius, store limit and deals per store must be positive", path)
	}
	if t.Recommend.RadiusMiles <= 0 {
		return Tuning{}, fmt.Errorf("tuning file %s: recommend radius must be positive", path)
	}
	if t.RateLimits.Window <= 0 || t.RateLimits.Default <= 0 || t.RateLimits.Auth <= 0 || t.RateLimits.Deals <= 0 {
		return Tuning{}, fmt.Errorf("tuning file %s: rate limits must be positive", path)
	}
	return t, nil
}
