package usecase

import (
	"math"
	"strings"

	"github.com/decorlens/backend/internal/domain"
)

// Recommendation phrases
const (
	BasicRecommendation    = "Temel analiz uygulandı"
	FailedRecommendation   = "Analiz tamamlanamadı"
	GenericRecommendation  = "Genel kullanıma uygun"
	recommendationSep      = " • "
	highRatingThreshold    = 4.5
	positiveSentimentLimit = 0.7
	bigDiscountLimit       = 20
)

// AdvancedScore weighs query overlap (30), rating (20), review volume (10),
// discount (10), compatibility (20) and sentiment (10) into 0..100
func AdvancedScore(p *domain.Product, query string, compatibility, sentiment float64) int {
	score := queryOverlap(p, query) * 30
	score += p.Rating / 5 * 20
	score += math.Min(float64(p.ReviewCount)/100, 1) * 10
	if p.Discounted() {
		score += float64(p.DiscountPercent) / 100 * 10
	}
	score += clamp(compatibility, 0, 1) * 20
	score += clamp(sentiment, 0, 1) * 10

	return clampScore(score)
}

// BasicScore is the scoring used without AI enrichment
func BasicScore(p *domain.Product, query string) int {
	text := productText(p)

	score := 0.0
	for _, tok := range queryTokens(query) {
		if strings.Contains(text, tok) {
			score += 10
		}
	}
	score += p.Rating * 5
	score += math.Min(float64(p.ReviewCount)/10, 20)
	if p.Discounted() {
		score += 15
	}

	return clampScore(score)
}

// queryOverlap is the share of query tokens found in the product's name and description
func queryOverlap(p *domain.Product, query string) float64 {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return 0
	}

	text := productText(p)
	found := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

func queryTokens(query string) []string {
	return strings.Fields(foldText(query))
}

func productText(p *domain.Product) string {
	return foldText(p.Name + " " + p.Description)
}

// foldText lower-cases text so Turkish and ASCII spellings compare equal:
// "MAVİ", "Mavi" and "mavi" fold alike, as do "KIRMIZI" and "Kırmızı".
func foldText(text string) string {
	return dottedIFolder.Replace(strings.ToLower(text))
}

var dottedIFolder = strings.NewReplacer("\u0307", "", "ı", "i")

func clampScore(score float64) int {
	return int(clamp(math.Round(score), 0, 100))
}

// Recommend builds the recommendation text from the checks that pass, in a fixed order
func Recommend(p *domain.Product, roomStyle string, roomColors []string, sentiment float64) string {
	var parts []string

	if style := strings.TrimSpace(roomStyle); style != "" && strings.Contains(productText(p), foldText(style)) {
		parts = append(parts, style+" tarzıyla mükemmel uyum")
	}

	if matching := matchingColors(p.Colors, roomColors); len(matching) > 0 {
		parts = append(parts, strings.Join(matching, ", ")+" renkleri oda ile uyumlu")
	}

	if p.Rating >= highRatingThreshold {
		parts = append(parts, "Yüksek müşteri memnuniyeti")
	}
	if sentiment > positiveSentimentLimit {
		parts = append(parts, "Olumlu müşteri yorumları")
	}
	if p.DiscountPercent > bigDiscountLimit {
		parts = append(parts, "Büyük indirim fırsatı")
	}
	if p.Shipping.Free {
		parts = append(parts, "Ücretsiz kargo avantajı")
	}

	if len(parts) == 0 {
		return GenericRecommendation
	}
	return strings.Join(parts, recommendationSep)
}

// matchingColors returns the product colors that contain any room color.
// Room colors are canonicalised first so "blue" matches "Mavi".
func matchingColors(productColors, roomColors []string) []string {
	var matching []string
	for _, pc := range productColors {
		lowerPC := strings.ToLower(pc)
		for _, rc := range roomColors {
			rc = strings.ToLower(canonicalColor(rc))
			if rc != "" && strings.Contains(lowerPC, rc) {
				matching = append(matching, pc)
				break
			}
		}
	}
	return matching
}
