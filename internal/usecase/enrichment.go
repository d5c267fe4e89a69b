package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/decorlens/backend/internal/domain"
	"go.uber.org/zap"
)

const neutralScore = 0.5

var compatibilityOpts = domain.CompletionOptions{Temperature: 0.3, MaxTokens: 100}

const compatibilityPrompt = `Bu ürünün oda stiliyle uyumluluğunu analiz et:

Ürün: %s
Açıklama: %s
Renkler: %s

Oda Stili: %s
Oda Renkleri: %s

0-1 arasında uyumluluk skoru döndür (sadece sayı).`

// Enricher computes sentiment, compatibility, score and recommendation for products
type Enricher struct {
	client    domain.TextCompletionClient
	sentiment domain.SentimentScorer
	logger    *zap.Logger
}

// NewEnricher creates an enricher. A nil client makes every compatibility neutral.
func NewEnricher(client domain.TextCompletionClient, sentiment domain.SentimentScorer, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{client: client, sentiment: sentiment, logger: logger}
}

// Enrich fills the AI fields of p with the advanced formula. A panic inside
// enrichment is returned as ErrEnrichment.
func (e *Enricher) Enrich(ctx context.Context, p *domain.Product, q domain.SearchQuery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrEnrichment, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEnrichment, err)
	}

	sentiment := e.Sentiment(p.Reviews)
	compatibility := e.Compatibility(ctx, p, q.RoomStyle, q.RoomColors)

	p.SentimentScore = sentiment
	p.CompatibilityScore = compatibility
	p.AIScore = AdvancedScore(p, q.Query, compatibility, sentiment)
	p.AIRecommendation = Recommend(p, q.RoomStyle, q.RoomColors, sentiment)
	return nil
}

// EnrichBasic fills the AI fields of p with the basic formula
func (e *Enricher) EnrichBasic(p *domain.Product, query, recommendation string) {
	p.SentimentScore = e.Sentiment(p.Reviews)
	p.CompatibilityScore = neutralScore
	p.AIScore = BasicScore(p, query)
	p.AIRecommendation = recommendation
}

// Sentiment averages the rescaled sentiment of non-empty reviews, 0.5 when there are none
func (e *Enricher) Sentiment(reviews []string) float64 {
	if e.sentiment == nil {
		return neutralScore
	}

	total, n := 0.0, 0
	for _, r := range reviews {
		if strings.TrimSpace(r) == "" {
			continue
		}
		total += clamp((e.sentiment.Score(r)+5)/10, 0, 1)
		n++
	}
	if n == 0 {
		return neutralScore
	}
	return total / float64(n)
}

// Compatibility asks the completion client how well p fits the room, 0.5 on any failure
func (e *Enricher) Compatibility(ctx context.Context, p *domain.Product, roomStyle string, roomColors []string) float64 {
	if e.client == nil {
		return neutralScore
	}

	style := roomStyle
	if style == "" {
		style = "Belirtilmemiş"
	}
	colors := strings.Join(roomColors, ", ")
	if colors == "" {
		colors = "Belirtilmemiş"
	}

	prompt := fmt.Sprintf(compatibilityPrompt, p.Name, p.Description, strings.Join(p.Colors, ", "), style, colors)
	text, err := e.client.Complete(ctx, prompt, compatibilityOpts)
	if err != nil {
		e.logger.Warn("compatibility call failed", zap.String("product_id", p.ID), zap.Error(err))
		return neutralScore
	}
	return parseCompatibility(text)
}

// parseCompatibility reads the first number in text, clamped to [0,1]
func parseCompatibility(text string) float64 {
	m := firstNumber.FindString(text)
	if m == "" {
		return neutralScore
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return neutralScore
	}
	return clamp(v, 0, 1)
}
