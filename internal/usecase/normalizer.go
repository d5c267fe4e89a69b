package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/decorlens/backend/internal/domain"
	"github.com/google/uuid"
)

const defaultCurrency = "TL"

var (
	priceCharsPattern = regexp.MustCompile(`[^\d.,]`)
	currencyPattern   = regexp.MustCompile(`(?i)\b(TL|TRY|USD|EUR)\b|₺|\$|€`)
	sizePattern       = regexp.MustCompile(`(\d+)\s*[xX×]\s*(\d+)\s*(?:cm|CM)?`)
	firstNumber       = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	firstInteger      = regexp.MustCompile(`\d+(?:\.\d{3})*`)
)

var brandPool = []string{"DekorArt", "Tablo", "Canvas", "Poster", "Frame", "Art"}

var descriptionTemplates = []string{
	"Modern yaşam alanları için tasarlanmış kaliteli duvar dekorasyonu",
	"Evinizi güzelleştiren şık ve zarif tablo",
	"Yüksek kaliteli baskı ile üretilen dekoratif sanat eseri",
	"Duvarlarınıza renk katacak modern tasarım",
	"Minimalist ve şık dekorasyon severlere özel",
}

// Normalizer converts scraped candidates into canonical products
type Normalizer struct {
	rnd domain.RandomSource
}

// NewNormalizer creates a normalizer drawing fallback values from rnd
func NewNormalizer(rnd domain.RandomSource) *Normalizer {
	if rnd == nil {
		rnd = NewTimeSeededRandomSource()
	}
	return &Normalizer{rnd: rnd}
}

// Normalize maps c to a Product. index is the candidate's position on the
// results page and only feeds the generated id.
func (n *Normalizer) Normalize(c domain.RawCandidate, index int) domain.Product {
	price := ParsePrice(c.PriceText)

	p := domain.Product{
		ID:          productID(c, index),
		Name:        c.Name,
		Price:       price,
		Rating:      n.rating(c.RatingText),
		ReviewCount: n.reviewCount(c.ReviewCountText),
		Image:       c.Image,
		Link:        c.Link,
		Source:      c.Source,
		Brand:       n.brand(c.Name),
		Description: descriptionTemplates[n.rnd.Intn(len(descriptionTemplates))],
		Features:    productFeatures(c.Name),
		Colors:      productColors(c.Name),
		Sizes:       productSizes(c.Name),
		Shipping:    shippingInfo(c.FreeShipping),
		Reviews:     append([]string(nil), c.Reviews...),
	}

	if c.OriginalPriceText != "" {
		original := ParsePrice(c.OriginalPriceText)
		if d := DiscountPercent(price.Value, original.Value); d > 0 {
			p.OriginalPrice = &original
			p.DiscountPercent = d
		}
	}

	return p
}

// ParsePrice reads a marketplace price such as "1.050,75 TL". Amount keeps the
// displayed separators; Value follows Turkish formatting, where a lone dot
// followed by exactly three digits is a thousands separator.
func ParsePrice(text string) domain.Price {
	currency := defaultCurrency
	if m := currencyPattern.FindString(text); m != "" {
		currency = currencySymbol(m)
	}

	amount := strings.Trim(priceCharsPattern.ReplaceAllString(text, ""), ".,")
	if !strings.ContainsAny(amount, "0123456789") {
		return domain.Price{Amount: "0", Currency: currency}
	}

	return domain.Price{Amount: amount, Value: parseTurkishNumber(amount), Currency: currency}
}

func parseTurkishNumber(s string) float64 {
	hasDot, hasComma := strings.Contains(s, "."), strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasDot:
		if len(s)-strings.LastIndex(s, ".")-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func currencySymbol(m string) string {
	switch strings.ToUpper(m) {
	case "₺", "TL", "TRY":
		return "TL"
	case "$":
		return "USD"
	case "€":
		return "EUR"
	}
	return strings.ToUpper(m)
}

// DiscountPercent returns the rounded discount of current against original,
// or 0 when there is none
func DiscountPercent(current, original float64) int {
	if original <= 0 || current <= 0 || original <= current {
		return 0
	}
	return int(math.Round((original - current) / original * 100))
}

func (n *Normalizer) rating(text string) float64 {
	r := 4.0 + n.rnd.Float64()
	if m := firstNumber.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64); err == nil && v > 0 {
			r = v
		}
	}
	return clamp(r, 3.5, 5)
}

func (n *Normalizer) reviewCount(text string) int {
	if m := firstInteger.FindString(text); m != "" {
		if v, err := strconv.Atoi(strings.ReplaceAll(m, ".", "")); err == nil {
			return v
		}
	}
	return 10 + n.rnd.Intn(200)
}

// brand returns the first capitalised word of name longer than two runes
func (n *Normalizer) brand(name string) string {
	for _, word := range strings.Fields(name) {
		runes := []rune(word)
		if len(runes) > 2 && unicode.IsUpper(runes[0]) {
			return word
		}
	}
	return brandPool[n.rnd.Intn(len(brandPool))]
}

func productColors(name string) []string {
	if colors := matchColors(name); len(colors) > 0 {
		return colors
	}
	return []string{MultiColor}
}

func productSizes(name string) []string {
	var sizes []string
	for _, m := range sizePattern.FindAllStringSubmatch(name, -1) {
		sizes = append(sizes, fmt.Sprintf("%sx%s cm", m[1], m[2]))
	}
	if len(sizes) > 0 {
		return dedupe(sizes)
	}

	switch {
	case containsAny(name, "büyük", "large"):
		return []string{"70x100 cm"}
	case containsAny(name, "küçük", "small"):
		return []string{"30x40 cm"}
	default:
		return []string{"50x70 cm"}
	}
}

func productFeatures(name string) []string {
	features := []string{"Kaliteli baskı", "Kolay asım"}

	if containsAny(name, "kanvas", "canvas") {
		features = append(features, "Canvas baskı")
	}
	if containsAny(name, "çerçev", "frame") {
		features = append(features, "Çerçeveli")
	}
	for _, tok := range lowerTokens(name) {
		if tok == "uv" {
			features = append(features, "UV dayanımlı")
			break
		}
	}
	return features
}

func shippingInfo(free bool) domain.Shipping {
	s := domain.Shipping{
		Info:         "Kargo bilgisi için ürün sayfasını ziyaret edin",
		DeliveryTime: "1-3 iş günü",
		Free:         free,
	}
	if free {
		s.Info = "Ücretsiz Kargo"
	}
	return s
}

func productID(c domain.RawCandidate, index int) string {
	source := strings.ToLower(c.Source)
	if source == "" {
		source = "product"
	}
	if c.ProductID != "" {
		return source + "_" + c.ProductID
	}
	return fmt.Sprintf("%s_%d_%s", source, index, uuid.NewString()[:8])
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
