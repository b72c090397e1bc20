// Package dealsource produces promotional deal lines for a store.
package dealsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparseable means the upstream answered but no deal list could be read.
var ErrUnparseable = errors.New("deal response not parseable")

// Source returns up to n deal lines for a store.
type Source interface {
	Deals(ctx context.Context, store, category string, n int) ([]string, error)
}

// Static serves the generic fallback lines. It is used when no generative
// backend is configured.
type Static struct{}

// Deals implements Source.
func (Static) Deals(_ context.Context, store, category string, n int) ([]string, error) {
	return truncate(FallbackDeals(store, category), n), nil
}

// FallbackDeals is shown when a store's deals could not be read.
func FallbackDeals(store, category string) []string {
	return []string{
		fmt.Sprintf("Special offers at %s", store),
		fmt.Sprintf("Weekly deals on %s items", category),
		"Check in-store for current promotions",
	}
}

// UnavailableDeals is shown alongside a per-store error.
func UnavailableDeals(store, category string) []string {
	return []string{
		fmt.Sprintf("Current promotions at %s", store),
		fmt.Sprintf("Deals on %s items", category),
	}
}

var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ParseDeals reads a JSON array of strings from model output, tolerating
// surrounding prose or code fences, and keeps at most n entries.
func ParseDeals(text string, n int) ([]string, error) {
	text = strings.TrimSpace(text)
	candidate := text
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		candidate = arrayPattern.FindString(text)
		if candidate == "" {
			return nil, ErrUnparseable
		}
	}
	var deals []string
	if err := json.Unmarshal([]byte(candidate), &deals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	cleaned := deals[:0]
	for _, d := range deals {
		if d = strings.TrimSpace(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrUnparseable
	}
	return truncate(cleaned, n), nil
}

func truncate(deals []string, n int) []string {
	if n > 0 && len(deals) > n {
		return deals[:n]
	}
	return deals
}
