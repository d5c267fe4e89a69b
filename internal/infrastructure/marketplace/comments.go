package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/decorlens/backend/internal/domain"
	"go.uber.org/zap"
)

// MaxComments is the most review texts read from one review page
const MaxComments = 100

// reviews load as the page scrolls, 500px per step
const reviewScrollScript = `() => window.scrollBy(0, 500)`

// CommentScraper is a domain.CommentSource that reads a product's review page
type CommentScraper struct {
	browser Browser
	profile *SiteProfile
	cfg     Config
	logger  *zap.Logger
}

// NewCommentScraper creates a review page scraper. A nil profile selects TrendyolProfile.
func NewCommentScraper(browser Browser, profile *SiteProfile, cfg Config, logger *zap.Logger) *CommentScraper {
	if profile == nil {
		profile = TrendyolProfile()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentScraper{
		browser: browser,
		profile: profile,
		cfg:     cfg,
		logger:  logger.Named("comments"),
	}
}

// FetchComments opens the review page of productURL and returns its review
// texts. A page without reviews yields an empty slice and no error.
func (s *CommentScraper) FetchComments(ctx context.Context, productURL string) ([]string, error) {
	start := time.Now()

	target, err := s.profile.ReviewsPageURL(productURL)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("url", target))

	page, release, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, &ScrapeError{Stage: StageLaunch, Err: fmt.Errorf("%w: %v", domain.ErrNavigation, err)}
	}
	defer release()

	if err := page.Navigate(target, WaitDOMReady, s.cfg.NavigationTimeout); err != nil {
		return nil, &ScrapeError{Stage: StageNavigate, Err: fmt.Errorf("%w: %v", domain.ErrNavigation, err)}
	}

	for i := 0; i < s.cfg.ReviewScrollSteps && ctx.Err() == nil; i++ {
		if err := page.Evaluate(reviewScrollScript); err != nil {
			log.Debug("review scroll failed", zap.Error(err))
		}
		sleep(ctx, s.cfg.ReviewScrollDelay)
	}

	html, err := page.Content()
	if err != nil {
		return nil, &ScrapeError{Stage: StageExtract, Err: err}
	}

	comments, err := ExtractComments(html, s.profile)
	if err != nil {
		return nil, &ScrapeError{Stage: StageExtract, PageLength: len(html), Err: err}
	}

	log.Info("review page read",
		zap.Int("comments", len(comments)),
		zap.Duration("duration", time.Since(start)),
	)
	return comments, nil
}

// ExtractComments returns the distinct review texts of a review page snapshot,
// at most MaxComments
func ExtractComments(html string, profile *SiteProfile) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse review page: %w", err)
	}

	seen := make(map[string]struct{})
	comments := []string{}
	for _, text := range allTexts(doc.Selection, profile.Selectors.Comments) {
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		comments = append(comments, text)
		if len(comments) == MaxComments {
			break
		}
	}
	return comments, nil
}
