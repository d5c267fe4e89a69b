package domain

// Size preferences recognised in a query
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// Style preferences recognised in a query
const (
	StyleModern     = "modern"
	StyleClassic    = "classic"
	StyleMinimalist = "minimalist"
	StyleBohemian   = "bohemian"
)

// DefaultCategory is used when a query names no product category
const DefaultCategory = "tablo"

// SearchQuery represents a product search request
type SearchQuery struct {
	Query      string   `json:"query" binding:"required"`
	RoomStyle  string   `json:"roomStyle,omitempty"`
	RoomColors []string `json:"roomColors,omitempty"`
}

// PriceRange bounds a price search. Zero bounds mean unbounded.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// QueryFeatures are the structured search attributes extracted from free text
type QueryFeatures struct {
	Category   string     `json:"category"`
	Colors     []string   `json:"colors"`
	Size       string     `json:"size"`
	Style      string     `json:"style"`
	PriceRange PriceRange `json:"priceRange"`
	Keywords   []string   `json:"keywords"`
}

// ValidSize reports whether s is one of the known sizes
func ValidSize(s string) bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

// ValidStyle reports whether s is one of the known styles
func ValidStyle(s string) bool {
	switch s {
	case StyleModern, StyleClassic, StyleMinimalist, StyleBohemian:
		return true
	}
	return false
}
