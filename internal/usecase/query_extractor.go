package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/decorlens/backend/internal/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	priceBetweenPattern = regexp.MustCompile(`(\d[\d.]*)\s*(?:tl|₺)?\s*-\s*(\d[\d.]*)\s*(?:tl|₺)`)
	priceUnderPattern   = regexp.MustCompile(`(\d[\d.]*)\s*(?:tl|₺)\s*(?:altı|altında|alti)|(?:under|below|max)\s*(\d[\d.]*)`)
	priceOverPattern    = regexp.MustCompile(`(\d[\d.]*)\s*(?:tl|₺)\s*(?:üstü|üzeri|ustu)|(?:over|above|min)\s*(\d[\d.]*)`)
	codeFencePattern    = regexp.MustCompile("(?s)```(?:json)?")
)

var featureOpts = domain.CompletionOptions{Temperature: 0.7, MaxTokens: 1000}

const featurePrompt = `Bu ürün arama sorgusunu analiz et ve şu bilgileri çıkar:

Sorgu: %q

Çıkarılacak bilgiler:
1. category: ürün kategorisi (tablo, çerçeve, poster, ayna, saat)
2. colors: renkler (mavi, kırmızı, beyaz vs.)
3. size: boyut tercihi (small, medium, large)
4. style: stil (modern, classic, minimalist, bohemian)
5. priceRange: fiyat aralığı {"min": sayı, "max": sayı} (yoksa 0)
6. keywords: anahtar kelimeler

Sadece JSON döndür: {"category": "", "colors": [], "size": "", "style": "", "priceRange": {"min": 0, "max": 0}, "keywords": []}`

// QueryExtractor turns free-text search queries into structured features
type QueryExtractor struct {
	client domain.TextCompletionClient
	logger *zap.Logger
}

// NewQueryExtractor creates an extractor. With a nil client only the keyword heuristic is used.
func NewQueryExtractor(client domain.TextCompletionClient, logger *zap.Logger) *QueryExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryExtractor{client: client, logger: logger}
}

// Extract asks the completion client for features and falls back to
// HeuristicFeatures for anything it cannot provide. It never fails, and a
// panicking client also yields the heuristic.
func (e *QueryExtractor) Extract(ctx context.Context, query string) (features domain.QueryFeatures) {
	heuristic := HeuristicFeatures(query)
	if e.client == nil {
		return heuristic
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("feature extraction panicked, using heuristic", zap.Any("panic", r))
			features = heuristic
		}
	}()

	text, err := e.client.Complete(ctx, fmt.Sprintf(featurePrompt, query), featureOpts)
	if err != nil {
		e.logger.Warn("feature extraction call failed, using heuristic", zap.Error(err))
		return heuristic
	}

	features, err = parseFeatures(text, heuristic)
	if err != nil {
		e.logger.Warn("feature extraction response unusable, using heuristic",
			zap.Error(err),
			zap.String("response", truncate(text, 200)),
		)
		return heuristic
	}
	return features
}

// parseFeatures reads the first JSON object in text. Fields that are absent
// or not recognised keep the fallback value.
func parseFeatures(text string, fallback domain.QueryFeatures) (domain.QueryFeatures, error) {
	obj, ok := firstJSONObject(codeFencePattern.ReplaceAllString(text, ""))
	if !ok || !gjson.Valid(obj) {
		return fallback, fmt.Errorf("%w: no JSON object in response", domain.ErrFeatureExtraction)
	}
	res := gjson.Parse(obj)

	features := fallback

	if c := strings.ToLower(strings.TrimSpace(res.Get("category").String())); c != "" {
		features.Category = c
	}

	if colors := stringList(res.Get("colors")); len(colors) > 0 {
		features.Colors = dedupe(mapStrings(colors, canonicalColor))
	}

	if size, ok := canonicalSize(res.Get("size").String()); ok {
		features.Size = size
	}
	if style, ok := canonicalStyle(res.Get("style").String()); ok {
		features.Style = style
	}

	if pr, ok := priceRangeFrom(res.Get("priceRange")); ok {
		features.PriceRange = pr
	}

	if kw := stringList(res.Get("keywords")); len(kw) > 0 {
		features.Keywords = kw
	}

	return features, nil
}

// HeuristicFeatures extracts features with keyword tables only
func HeuristicFeatures(query string) domain.QueryFeatures {
	lower := strings.ToLower(query)

	colors := matchColors(query)
	if colors == nil {
		colors = []string{}
	}

	return domain.QueryFeatures{
		Category:   heuristicCategory(lower),
		Colors:     colors,
		Size:       heuristicSize(lower),
		Style:      heuristicStyle(lower),
		PriceRange: heuristicPriceRange(lower),
		Keywords:   queryKeywords(query),
	}
}

func heuristicCategory(lower string) string {
	switch {
	case containsAny(lower, "çerçeve", "frame"):
		return "çerçeve"
	case containsAny(lower, "poster"):
		return "poster"
	case containsAny(lower, "ayna", "mirror"):
		return "ayna"
	case containsAny(lower, "saat", "clock"):
		return "saat"
	default:
		return domain.DefaultCategory
	}
}

func heuristicSize(lower string) string {
	size := domain.SizeMedium
	if containsAny(lower, "küçük", "small") {
		size = domain.SizeSmall
	}
	if containsAny(lower, "büyük", "large") {
		size = domain.SizeLarge
	}
	return size
}

func heuristicStyle(lower string) string {
	style := domain.StyleModern
	if containsAny(lower, "klasik", "classic") {
		style = domain.StyleClassic
	}
	if containsAny(lower, "minimalist") {
		style = domain.StyleMinimalist
	}
	if containsAny(lower, "bohem", "boho") {
		style = domain.StyleBohemian
	}
	return style
}

func heuristicPriceRange(lower string) domain.PriceRange {
	if m := priceBetweenPattern.FindStringSubmatch(lower); m != nil {
		lo, hi := parseAmount(m[1]), parseAmount(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return domain.PriceRange{Min: lo, Max: hi}
	}
	if m := priceUnderPattern.FindStringSubmatch(lower); m != nil {
		return domain.PriceRange{Max: parseAmount(firstNonEmpty(m[1], m[2]))}
	}
	if m := priceOverPattern.FindStringSubmatch(lower); m != nil {
		return domain.PriceRange{Min: parseAmount(firstNonEmpty(m[1], m[2]))}
	}
	return domain.PriceRange{}
}

// queryKeywords returns the whitespace-separated tokens of query longer than two runes
func queryKeywords(query string) []string {
	keywords := []string{}
	for _, tok := range strings.Fields(query) {
		if len([]rune(tok)) > 2 {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

func canonicalSize(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "küçük", "kucuk":
		return domain.SizeSmall, true
	case "medium", "orta":
		return domain.SizeMedium, true
	case "large", "büyük", "buyuk":
		return domain.SizeLarge, true
	}
	return "", false
}

func canonicalStyle(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modern":
		return domain.StyleModern, true
	case "classic", "klasik":
		return domain.StyleClassic, true
	case "minimalist", "minimal":
		return domain.StyleMinimalist, true
	case "bohemian", "bohem", "boho":
		return domain.StyleBohemian, true
	}
	return "", false
}

// styleSearchTerms are the marketplace words for each non-default style
var styleSearchTerms = map[string]string{
	domain.StyleClassic:    "klasik",
	domain.StyleMinimalist: "minimalist",
	domain.StyleBohemian:   "bohem",
}

// decorTerms mark a query as already being about wall decor
var decorTerms = []string{"tablo", "kanvas", "canvas", "duvar", "dekorasyon", "sanat", "poster"}

// BuildSearchTerm composes the marketplace search text from the query and its features
func BuildSearchTerm(query string, f domain.QueryFeatures) string {
	parts := []string{strings.TrimSpace(query)}

	if !containsAny(query, decorTerms...) {
		parts = append(parts, domain.DefaultCategory)
	}
	if term, ok := styleSearchTerms[f.Style]; ok && !containsAny(query, term) {
		parts = append(parts, term)
	}
	if len(f.Colors) > 0 {
		color := strings.ToLower(f.Colors[0])
		if !containsAny(query, color) {
			parts = append(parts, color)
		}
	}
	return strings.Join(parts, " ")
}

// firstJSONObject returns the first balanced {...} in text, honouring string literals
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stringList accepts a JSON array of strings or a single comma-separated string
func stringList(r gjson.Result) []string {
	var out []string
	switch {
	case r.IsArray():
		for _, item := range r.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case r.Type == gjson.String:
		for _, s := range strings.Split(r.String(), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// priceRangeFrom accepts {"min":a,"max":b}, [a,b] or "a-b TL"
func priceRangeFrom(r gjson.Result) (domain.PriceRange, bool) {
	switch {
	case r.IsObject():
		pr := domain.PriceRange{Min: r.Get("min").Float(), Max: r.Get("max").Float()}
		return pr, pr.Min > 0 || pr.Max > 0
	case r.IsArray():
		items := r.Array()
		if len(items) != 2 {
			return domain.PriceRange{}, false
		}
		pr := domain.PriceRange{Min: items[0].Float(), Max: items[1].Float()}
		return pr, pr.Min > 0 || pr.Max > 0
	case r.Type == gjson.String:
		pr := heuristicPriceRange(strings.ToLower(r.String()))
		return pr, pr.Min > 0 || pr.Max > 0
	}
	return domain.PriceRange{}, false
}

// parseAmount reads an integer amount that may use "." as thousands separator
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ".", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func mapStrings(in []string, fn func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, fn(s))
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
