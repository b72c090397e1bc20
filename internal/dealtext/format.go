// Package dealtext cleans up generated deal copy for display.
package dealtext

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

var (
	leadingOrdinal  = regexp.MustCompile(`^\d+\.\s*`)
	pricePattern    = regexp.MustCompile(`\$[\d,]+(\.\d{2})?`)
	discountPattern = regexp.MustCompile(`(?i)\d+%\s*(off|discount)`)
)

// Marker is an emphasis wrapper placed around a matched substring.
type Marker struct {
	Open  string
	Close string
}

func (m Marker) wrap(s string) string {
	return m.Open + s + m.Close
}

// Markers pairs the price and discount emphasis wrappers.
type Markers struct {
	Price    Marker
	Discount Marker
}

// HTMLMarkers are the wrappers used by the rendered deal cards.
var HTMLMarkers = Markers{
	Price:    Marker{Open: `<strong class="deal-price">`, Close: `</strong>`},
	Discount: Marker{Open: `<strong class="deal-discount">`, Close: `</strong>`},
}

// Clean strips markdown emphasis and one leading "N. " ordinal.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	return leadingOrdinal.ReplaceAllString(s, "")
}

// Highlight wraps prices and then "N% off|discount" phrases.
// Applying it to its own output wraps the matches again.
func Highlight(s string, m Markers) string {
	s = pricePattern.ReplaceAllStringFunc(s, m.Price.wrap)
	return discountPattern.ReplaceAllStringFunc(s, m.Discount.wrap)
}

// Format runs Clean followed by Highlight. It must be applied once per raw
// deal string, never to already formatted output.
func Format(raw string, m Markers) string {
	return Highlight(Clean(raw), m)
}

// FormatHTML escapes raw before formatting it with HTMLMarkers, so the only
// markup in the result is the emphasis added here.
func FormatHTML(raw string) template.HTML {
	return template.HTML(Format(html.EscapeString(raw), HTMLMarkers))
}
