package domain

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PriceTierStudents = "Studierende"
	PriceTierStaff    = "Bedienstete"

	// DefaultImage is shown upstream for meals without a photo of their own.
	DefaultImage = "https://static.studentenwerk-dresden.de/bilder/mensen/studentenwerk-dresden-lieber-mensen-gehen.jpg"
)

// Meal is a single menu item of a canteen on a given day.
type Meal struct {
	ID       string                     `json:"id"`
	Name     string                     `json:"name"`
	Category string                     `json:"category"`
	Notes    []string                   `json:"notes"`
	Prices   map[string]decimal.Decimal `json:"prices"`
	URL      string                     `json:"url,omitempty"`
	Image    string                     `json:"image,omitempty"`
}

// Price returns the price of a tier and whether the tier is listed.
func (m Meal) Price(tier string) (decimal.Decimal, bool) {
	p, ok := m.Prices[tier]
	return p, ok
}

// HasCustomImage reports whether the meal has a photo other than the placeholder.
func (m Meal) HasCustomImage() bool {
	return m.Image != "" && m.Image != DefaultImage
}

// NormalizeImageURL turns protocol-relative and plain http links into absolute
// https URLs. Values that cannot be expressed that way yield "".
func NormalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
	case "http":
		u.Scheme = "https"
	default:
		return ""
	}
	return u.String()
}
