package domain

import "fmt"

// Price is a marketplace price as shown on the site plus its parsed value
type Price struct {
	Amount   string  `json:"amount"`   // digits and separators as displayed, e.g. "1.050,75"
	Value    float64 `json:"value"`    // parsed numeric value, e.g. 1050.75
	Currency string  `json:"currency"` // e.g. "TL"
}

// String renders the price the way the marketplace displays it
func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.Amount, p.Currency)
}

// Shipping holds the delivery information of a product
type Shipping struct {
	Info         string `json:"info"`
	DeliveryTime string `json:"deliveryTime"`
	Free         bool   `json:"free"`
}

// Product is the canonical, enriched product returned by a search
type Product struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Price              Price    `json:"price"`
	OriginalPrice      *Price   `json:"originalPrice,omitempty"`
	DiscountPercent    int      `json:"discountPercent,omitempty"` // 0 when not discounted
	Rating             float64  `json:"rating"`                    // 0-5
	ReviewCount        int      `json:"reviewCount"`
	Image              string   `json:"image"`
	Link               string   `json:"link"`
	Source             string   `json:"source"`
	Brand              string   `json:"brand"`
	Description        string   `json:"description"`
	Features           []string `json:"features"`
	Colors             []string `json:"colors"`
	Sizes              []string `json:"sizes"`
	Shipping           Shipping `json:"shipping"`
	Reviews            []string `json:"reviews,omitempty"`
	AIScore            int      `json:"aiScore"`            // 0-100
	AIRecommendation   string   `json:"aiRecommendation"`
	SentimentScore     float64  `json:"sentimentScore"`     // 0-1
	CompatibilityScore float64  `json:"compatibilityScore"` // 0-1
}

// Discounted reports whether the product carries a discount
func (p *Product) Discounted() bool {
	return p.DiscountPercent > 0
}

// DiscountLabel returns the discount in marketplace notation ("%33"), or "" when not discounted
func (p *Product) DiscountLabel() string {
	if !p.Discounted() {
		return ""
	}
	return fmt.Sprintf("%%%d", p.DiscountPercent)
}

// RawCandidate is a scraped, not yet validated product card
type RawCandidate struct {
	Name              string   `json:"name"`
	PriceText         string   `json:"priceText"`
	OriginalPriceText string   `json:"originalPriceText,omitempty"`
	Image             string   `json:"image"`
	ImageCandidates   []string `json:"imageCandidates,omitempty"`
	Link              string   `json:"link"`
	ProductID         string   `json:"productId,omitempty"`
	RatingText        string   `json:"ratingText,omitempty"`
	ReviewCountText   string   `json:"reviewCountText,omitempty"`
	Reviews           []string `json:"reviews,omitempty"`
	FreeShipping      bool     `json:"freeShipping,omitempty"`
	Source            string   `json:"source"`
}

// Valid reports whether the candidate carries every field a Product needs
func (c *RawCandidate) Valid() bool {
	return c.Name != "" && c.PriceText != "" && c.Image != "" && c.Link != ""
}
