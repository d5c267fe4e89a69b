package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/decorlens/backend/internal/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// maxPromptComments bounds how many reviews are sent for summarising
	maxPromptComments = 50
	maxCommentRunes   = 500
	positiveComment   = 0.6
	negativeComment   = 0.4
)

var commentOpts = domain.CompletionOptions{Temperature: 0.3, MaxTokens: 1000}

const commentPrompt = `Aşağıda bir ürün hakkında müşterilerin yaptığı yorumlar yer almaktadır.

Lütfen bu yorumları analiz et ve şu bilgileri bana açık, öz ve anlaşılır şekilde ver:

1. Ürün kalitesi ve dayanıklılığı hakkında genel görüşler nedir?
2. Ürünle ilgili sıkça belirtilen olası sorunlar, şikayetler veya eksiklikler nelerdir?
3. Kargo, teslimat süresi ve paketleme ile ilgili deneyimler nasıl?
4. Ürünün hangi yönleri müşteriler tarafından özellikle beğenilmiş?
5. Ürün hakkında genel bir değerlendirme yap ve olası tavsiyelerde bulun.

İşte yorumlar:

%s

---

Lütfen yorumlara dayalı olarak yukarıdaki bilgileri detaylandır. Cevabını JSON formatında ver:
{
  "quality": "ürün kalitesi hakkında özet",
  "problems": "sıkça belirtilen sorunlar",
  "shipping": "kargo ve teslimat deneyimleri",
  "positives": "özellikle beğenilen yönler",
  "recommendation": "genel değerlendirme ve tavsiyeler"
}`

// shippingTerms mark a review as talking about delivery
var shippingTerms = []string{"kargo", "teslimat", "paket", "shipping", "delivery"}

// NoCommentsAnalysis is the fixed analysis for a product without reviews
func NoCommentsAnalysis() domain.CommentAnalysis {
	return domain.CommentAnalysis{
		Summary:        "Bu ürün için henüz yorum bulunamadı.",
		Quality:        "Veri yok",
		Problems:       "Henüz yorum bulunmuyor",
		Shipping:       "Veri yok",
		Positives:      "Henüz yorum bulunmuyor",
		Recommendation: "Bu ürün için yeterli yorum verisi bulunmuyor. Satın almadan önce diğer kaynaklardan bilgi alınması önerilir.",
	}
}

// CommentServiceConfig holds configuration for the comment service
type CommentServiceConfig struct {
	CacheTTL time.Duration
}

// CommentService scrapes a product's reviews and summarises them
type CommentService struct {
	cache    domain.CacheRepository
	client   domain.TextCompletionClient
	source   domain.CommentSource
	enricher *Enricher
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCommentService creates a comment service. cache may be nil to disable
// caching; without a client the summary is built from review sentiment only.
func NewCommentService(
	cache domain.CacheRepository,
	client domain.TextCompletionClient,
	source domain.CommentSource,
	sentiment domain.SentimentScorer,
	config CommentServiceConfig,
	logger *zap.Logger,
) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &CommentService{
		cache:    cache,
		client:   client,
		source:   source,
		enricher: NewEnricher(nil, sentiment, logger),
		cacheTTL: cacheTTL,
		logger:   logger.Named("comments"),
	}
}

// Analyze reads the reviews of productURL and summarises them. It fails with
// ErrInvalidProductURL for a blank or foreign URL and ErrCommentScrape when
// the review page cannot be read.
func (s *CommentService) Analyze(ctx context.Context, productURL string) (domain.CommentReport, error) {
	productURL = strings.TrimSpace(productURL)
	if productURL == "" {
		return domain.CommentReport{}, domain.ErrInvalidProductURL
	}
	log := s.logger.With(zap.String("product_url", productURL))

	cacheKey := "comments:" + productURL
	if report, ok := s.getFromCache(ctx, cacheKey); ok {
		log.Debug("cache hit")
		return report, nil
	}

	comments, err := s.fetch(ctx, productURL)
	if err != nil {
		log.Warn("review page unavailable", zap.Error(err))
		return domain.CommentReport{}, err
	}

	report := domain.CommentReport{
		Comments:       comments,
		TotalComments:  len(comments),
		ProductURL:     productURL,
		SentimentScore: neutralScore,
	}
	if len(comments) == 0 {
		report.Analysis = NoCommentsAnalysis()
		return report, nil
	}

	report.SentimentScore = s.sentiment(comments)
	report.Analysis = s.summarize(ctx, comments, report.SentimentScore)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			log.Warn("failed to cache comment report", zap.Error(err))
		}
	}
	log.Info("comments analyzed", zap.Int("count", len(comments)), zap.Float64("sentiment", report.SentimentScore))
	return report, nil
}

// fetch calls the comment source; panics become ErrCommentScrape
func (s *CommentService) fetch(ctx context.Context, productURL string) (comments []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			comments, err = nil, fmt.Errorf("%w: panic: %v", domain.ErrCommentScrape, r)
		}
	}()

	comments, err = s.source.FetchComments(ctx, productURL)
	switch {
	case errors.Is(err, domain.ErrInvalidProductURL):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %w", domain.ErrCommentScrape, err)
	case comments == nil:
		return []string{}, nil
	}
	return comments, nil
}

func (s *CommentService) sentiment(comments []string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("review sentiment panicked", zap.Any("panic", r))
			score = neutralScore
		}
	}()
	return s.enricher.Sentiment(comments)
}

// summarize asks the completion client for a structured summary and falls
// back to the sentiment-only summary without a client
func (s *CommentService) summarize(ctx context.Context, comments []string, sentiment float64) (analysis domain.CommentAnalysis) {
	basic := s.basicAnalysis(comments, sentiment)
	if s.client == nil {
		return basic
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("comment summary panicked", zap.Any("panic", r))
			analysis = unavailableAnalysis()
		}
	}()

	text, err := s.client.Complete(ctx, fmt.Sprintf(commentPrompt, promptComments(comments)), commentOpts)
	if err != nil {
		s.logger.Warn("comment summary call failed", zap.Error(err))
		return unavailableAnalysis()
	}
	return parseCommentAnalysis(text, basic)
}

// basicAnalysis summarises reviews from per-review sentiment and delivery mentions
func (s *CommentService) basicAnalysis(comments []string, sentiment float64) domain.CommentAnalysis {
	positive, negative, shipping := 0, 0, 0
	for _, c := range comments {
		switch score := s.sentiment([]string{c}); {
		case score > positiveComment:
			positive++
		case score < negativeComment:
			negative++
		}
		if containsAny(c, shippingTerms...) {
			shipping++
		}
	}

	a := domain.CommentAnalysis{
		Summary:        fmt.Sprintf("%d yorum incelendi: %d olumlu, %d olumsuz.", len(comments), positive, negative),
		Recommendation: "Temel analiz uygulandı. Ayrıntılı özet için AI servisi yapılandırılmalı.",
	}
	switch {
	case sentiment > positiveComment:
		a.Quality = "Yorumlar genel olarak olumlu"
	case sentiment < negativeComment:
		a.Quality = "Yorumlar genel olarak olumsuz"
	default:
		a.Quality = "Yorumlar karışık"
	}
	if negative > 0 {
		a.Problems = fmt.Sprintf("%d yorumda şikayet var", negative)
	} else {
		a.Problems = "Belirgin bir şikayet yok"
	}
	if shipping > 0 {
		a.Shipping = fmt.Sprintf("%d yorum kargo ve teslimattan bahsediyor", shipping)
	} else {
		a.Shipping = "Kargo hakkında yorum yok"
	}
	if positive > 0 {
		a.Positives = fmt.Sprintf("%d yorumda memnuniyet belirtilmiş", positive)
	} else {
		a.Positives = "Öne çıkan olumlu yorum yok"
	}
	return a
}

func unavailableAnalysis() domain.CommentAnalysis {
	return domain.CommentAnalysis{
		Quality:        "AI analizi sırasında hata oluştu",
		Problems:       "AI servisine erişilemedi",
		Shipping:       "Hata nedeniyle analiz tamamlanamadı",
		Positives:      "AI servisine erişim sorunu",
		Recommendation: "Lütfen daha sonra tekrar deneyin",
	}
}

// promptComments renders at most maxPromptComments reviews as a JSON array
func promptComments(comments []string) string {
	if len(comments) > maxPromptComments {
		comments = comments[:maxPromptComments]
	}
	trimmed := make([]string, len(comments))
	for i, c := range comments {
		trimmed[i] = truncateRunes(c, maxCommentRunes)
	}
	out, _ := json.MarshalIndent(trimmed, "", "  ")
	return string(out)
}

// parseCommentAnalysis reads the first JSON object in text. Missing fields keep
// the fallback value; a reply without JSON is kept as free text.
func parseCommentAnalysis(text string, fallback domain.CommentAnalysis) domain.CommentAnalysis {
	obj, ok := firstJSONObject(codeFencePattern.ReplaceAllString(text, ""))
	if !ok || !gjson.Valid(obj) {
		runes := []rune(strings.TrimSpace(text))
		a := domain.CommentAnalysis{
			Quality:        string(runes[:min(len(runes), 200)]),
			Problems:       "AI tam yapılandırılmış cevap vermedi",
			Shipping:       "Ham AI cevabında detaylar mevcut",
			Positives:      "AI cevabı JSON formatında değil",
			Recommendation: string(runes[min(len(runes), 200):min(len(runes), 500)]),
		}
		if a.Quality == "" {
			return fallback
		}
		return a
	}

	res := gjson.Parse(obj)
	a := fallback
	a.Summary = ""
	for field, dst := range map[string]*string{
		"summary":        &a.Summary,
		"quality":        &a.Quality,
		"problems":       &a.Problems,
		"shipping":       &a.Shipping,
		"positives":      &a.Positives,
		"recommendation": &a.Recommendation,
	} {
		if v := strings.TrimSpace(res.Get(field).String()); v != "" {
			*dst = v
		}
	}
	return a
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (s *CommentService) getFromCache(ctx context.Context, key string) (domain.CommentReport, bool) {
	if s.cache == nil {
		return domain.CommentReport{}, false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return domain.CommentReport{}, false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return domain.CommentReport{}, false
	}
	var report domain.CommentReport
	if err := json.Unmarshal(raw, &report); err != nil || report.TotalComments == 0 {
		return domain.CommentReport{}, false
	}
	return report, true
}
