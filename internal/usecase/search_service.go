package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/decorlens/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxResults is the most products a search returns
const MaxResults = 10

// PlaceholderID identifies the single product returned when no candidates could be scraped
const PlaceholderID = "fallback_001"

var (
	nonWordRegex        = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL time.Duration
}

// SearchService runs the discovery pipeline: features, scrape, normalize, enrich, rank
type SearchService struct {
	cache      domain.CacheRepository
	extractor  *QueryExtractor
	source     domain.CandidateSource
	normalizer *Normalizer
	enricher   *Enricher
	advanced   bool
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewSearchService wires the pipeline. cache may be nil to disable caching.
// Without a completion client every product is scored with the basic formula.
func NewSearchService(
	cache domain.CacheRepository,
	client domain.TextCompletionClient,
	source domain.CandidateSource,
	sentiment domain.SentimentScorer,
	rnd domain.RandomSource,
	config SearchServiceConfig,
	logger *zap.Logger,
) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	return &SearchService{
		cache:      cache,
		extractor:  NewQueryExtractor(client, logger),
		source:     source,
		normalizer: NewNormalizer(rnd),
		enricher:   NewEnricher(client, sentiment, logger),
		advanced:   client != nil,
		cacheTTL:   cacheTTL,
		logger:     logger.Named("search"),
	}
}

// Search returns up to MaxResults ranked products for q. It never fails: when
// the marketplace yields nothing the single placeholder product is returned.
func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) (result []domain.Product) {
	start := time.Now()
	q.Query = strings.TrimSpace(q.Query)
	log := s.logger.With(zap.String("query", q.Query))

	defer func() {
		if r := recover(); r != nil {
			log.Error("search panicked, returning placeholder", zap.Any("panic", r), zap.Stack("stacktrace"))
			result = []domain.Product{PlaceholderProduct()}
		}
	}()

	if q.Query == "" {
		return []domain.Product{PlaceholderProduct()}
	}

	cacheKey := generateCacheKey(q)
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		log.Debug("cache hit", zap.Int("count", len(cached)))
		return cached
	}

	features := s.extractor.Extract(ctx, q.Query)
	term := BuildSearchTerm(q.Query, features)
	log.Debug("features extracted",
		zap.String("search_term", term),
		zap.Strings("colors", features.Colors),
		zap.String("style", features.Style),
		zap.String("size", features.Size),
	)

	products, err := s.scrape(ctx, term, log)
	if err != nil {
		log.Warn("scrape failed, returning placeholder", zap.Error(err))
		return []domain.Product{PlaceholderProduct()}
	}

	s.analyzeAll(ctx, products, q)
	products = Rank(products)

	if err := s.setInCache(ctx, cacheKey, products); err != nil {
		log.Warn("failed to cache results", zap.Error(err))
	}

	log.Info("search finished",
		zap.Int("count", len(products)),
		zap.Duration("duration", time.Since(start)),
	)
	return products
}

// scrape fetches candidates for term and normalizes the valid ones. A panic
// in the source or the normalizer is returned as ErrCandidateSource.
func (s *SearchService) scrape(ctx context.Context, term string, log *zap.Logger) (products []domain.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			products, err = nil, fmt.Errorf("%w: panic: %v", domain.ErrCandidateSource, r)
		}
	}()

	candidates, err := s.source.FetchCandidates(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCandidateSource, err)
	}

	products = make([]domain.Product, 0, len(candidates))
	for i, c := range candidates {
		if !c.Valid() {
			log.Debug("candidate rejected", zap.Int("index", i), zap.Error(domain.ErrCandidateRejected))
			continue
		}
		products = append(products, s.normalizer.Normalize(c, i))
	}
	if len(products) == 0 {
		return nil, domain.ErrNoCandidates
	}
	return products, nil
}

// analyzeAll enriches every product concurrently and waits for all of them
func (s *SearchService) analyzeAll(ctx context.Context, products []domain.Product, q domain.SearchQuery) {
	var g errgroup.Group
	for i := range products {
		p := &products[i]
		if !s.advanced {
			s.enrichOne(ctx, p, q)
			continue
		}
		g.Go(func() error {
			s.enrichOne(ctx, p, q)
			return nil
		})
	}
	_ = g.Wait()
}

// enrichOne scores a single product. Any failure, panics included, degrades
// only this product to the basic score.
func (s *SearchService) enrichOne(ctx context.Context, p *domain.Product, q domain.SearchQuery) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("enrichment panicked", zap.String("product_id", p.ID), zap.Any("panic", r))
			p.SentimentScore = neutralScore
			p.CompatibilityScore = neutralScore
			p.AIScore = BasicScore(p, q.Query)
			p.AIRecommendation = FailedRecommendation
		}
	}()

	if !s.advanced {
		s.enricher.EnrichBasic(p, q.Query, BasicRecommendation)
		return
	}
	if err := s.enricher.Enrich(ctx, p, q); err != nil {
		s.logger.Warn("enrichment failed, using basic score", zap.String("product_id", p.ID), zap.Error(err))
		s.enricher.EnrichBasic(p, q.Query, FailedRecommendation)
	}
}

// Rank orders products by score, then review count, then name, and keeps the top MaxResults
func Rank(products []domain.Product) []domain.Product {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.AIScore != b.AIScore {
			return a.AIScore > b.AIScore
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.Name < b.Name
	})
	if len(products) > MaxResults {
		products = products[:MaxResults]
	}
	return products
}

// PlaceholderProduct is the fixed response for a search that found nothing
func PlaceholderProduct() domain.Product {
	return domain.Product{
		ID:               PlaceholderID,
		Name:             "Ürün Bulunamadı - Lütfen Farklı Arama Deneyin",
		Price:            domain.Price{Amount: "0", Value: 0, Currency: defaultCurrency},
		Rating:           0,
		ReviewCount:      0,
		Image:            "https://via.placeholder.com/400x300/f3f4f6/6b7280?text=Ürün+Bulunamadı",
		Link:             "https://www.trendyol.com",
		Source:           "Sistem",
		Brand:            "Sistem",
		Description:      "Arama kriterlerinize uygun ürün bulunamadı. Lütfen farklı anahtar kelimeler deneyin.",
		Features:         []string{"Sistem mesajı"},
		Colors:           []string{"Gri"},
		Sizes:            []string{"N/A"},
		Shipping:         domain.Shipping{Info: "N/A", DeliveryTime: "N/A"},
		AIScore:          0,
		AIRecommendation: "Lütfen farklı arama terimleri deneyin",
	}
}

// IsPlaceholder reports whether products is the placeholder response
func IsPlaceholder(products []domain.Product) bool {
	return len(products) == 1 && products[0].ID == PlaceholderID
}

// generateCacheKey creates a normalized cache key.
// Format: "search:{query}:{style}:{colors}"
func generateCacheKey(q domain.SearchQuery) string {
	colors := make([]string, 0, len(q.RoomColors))
	for _, c := range q.RoomColors {
		if c = normalizeForCacheKey(c); c != "" {
			colors = append(colors, c)
		}
	}
	sort.Strings(colors)

	return fmt.Sprintf("search:%s:%s:%s",
		normalizeForCacheKey(q.Query),
		normalizeForCacheKey(q.RoomStyle),
		strings.Join(colors, ","),
	)
}

// normalizeForCacheKey lower-cases s, strips punctuation and collapses whitespace
func normalizeForCacheKey(s string) string {
	result := strings.ToLower(s)
	result = nonWordRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func (s *SearchService) getFromCache(ctx context.Context, key string) ([]domain.Product, bool) {
	if s.cache == nil {
		return nil, false
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	// cached values come back JSON-decoded; round-trip them into products
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil || len(products) == 0 {
		return nil, false
	}
	return products, true
}

func (s *SearchService) setInCache(ctx context.Context, key string, products []domain.Product) error {
	if s.cache == nil || IsPlaceholder(products) {
		return nil
	}
	return s.cache.Set(ctx, key, products, s.cacheTTL)
}
