package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/decorlens/backend/internal/domain"
	"go.uber.org/zap"
)

// Scrape stages reported in ScrapeError
const (
	StageLaunch   = "launch"
	StageNavigate = "navigate"
	StageDiscover = "discover"
	StageExtract  = "extract"
)

// ScrapeError is a failed scrape with whatever diagnostics were collected
type ScrapeError struct {
	Stage          string
	PageLength     int
	ScreenshotPath string
	Err            error
}

func (e *ScrapeError) Error() string {
	msg := fmt.Sprintf("scrape failed at %s: %v", e.Stage, e.Err)
	if e.PageLength > 0 {
		msg += fmt.Sprintf(" (page length %d)", e.PageLength)
	}
	if e.ScreenshotPath != "" {
		msg += fmt.Sprintf(" (screenshot %s)", e.ScreenshotPath)
	}
	return msg
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Config holds scraper timeouts and delays
type Config struct {
	NavigationTimeout time.Duration
	FallbackTimeout   time.Duration
	SelectorTimeout   time.Duration
	ScrollCycles      int
	ScrollDelay       time.Duration
	SettleDelay       time.Duration
	ScreenshotDir     string // empty disables screenshots
	ReviewScrollSteps int
	ReviewScrollDelay time.Duration
}

// DefaultConfig returns production timeouts
func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 45 * time.Second,
		FallbackTimeout:   20 * time.Second,
		SelectorTimeout:   3 * time.Second,
		ScrollCycles:      3,
		ScrollDelay:       800 * time.Millisecond,
		SettleDelay:       2 * time.Second,
		ReviewScrollSteps: 10,
		ReviewScrollDelay: 500 * time.Millisecond,
	}
}

// Scraper is a domain.CandidateSource that reads one marketplace's results page
type Scraper struct {
	browser Browser
	profile *SiteProfile
	cfg     Config
	logger  *zap.Logger
}

// NewScraper creates a scraper. A nil profile selects TrendyolProfile.
func NewScraper(browser Browser, profile *SiteProfile, cfg Config, logger *zap.Logger) *Scraper {
	if profile == nil {
		profile = TrendyolProfile()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		browser: browser,
		profile: profile,
		cfg:     cfg,
		logger:  logger.Named("scraper"),
	}
}

// FetchCandidates searches the marketplace for searchTerm and returns the accepted cards
func (s *Scraper) FetchCandidates(ctx context.Context, searchTerm string) ([]domain.RawCandidate, error) {
	start := time.Now()
	log := s.logger.With(zap.String("site", s.profile.Name), zap.String("term", searchTerm))

	page, release, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, &ScrapeError{Stage: StageLaunch, Err: fmt.Errorf("%w: %v", domain.ErrNavigation, err)}
	}
	defer release()

	target := s.profile.SearchPageURL(searchTerm)
	if err := s.navigate(page, target, log); err != nil {
		return nil, &ScrapeError{Stage: StageNavigate, Err: err}
	}

	selector, ok := s.discoverCards(ctx, page)
	if !ok {
		scrapeErr := &ScrapeError{Stage: StageDiscover, Err: domain.ErrSelectorDiscovery}
		s.collectDiagnostics(page, scrapeErr, log)
		log.Warn("no card selector matched", zap.Int("page_length", scrapeErr.PageLength))
		return nil, scrapeErr
	}

	s.triggerLazyLoad(ctx, page, selector, log)

	html, err := page.Content()
	if err != nil {
		return nil, &ScrapeError{Stage: StageExtract, Err: fmt.Errorf("%w: %v", domain.ErrNoCandidates, err)}
	}

	candidates, err := ExtractCandidates(html, selector, s.profile)
	if err != nil {
		return nil, &ScrapeError{Stage: StageExtract, PageLength: len(html), Err: fmt.Errorf("%w: %v", domain.ErrNoCandidates, err)}
	}
	if len(candidates) == 0 {
		return nil, &ScrapeError{Stage: StageExtract, PageLength: len(html), Err: domain.ErrNoCandidates}
	}

	log.Info("scrape finished",
		zap.String("selector", selector),
		zap.Int("candidates", len(candidates)),
		zap.Duration("duration", time.Since(start)),
	)
	return candidates, nil
}

// navigate waits for network idle first, then retries once waiting only for DOM ready
func (s *Scraper) navigate(page Page, target string, log *zap.Logger) error {
	err := page.Navigate(target, WaitNetworkIdle, s.cfg.NavigationTimeout)
	if err == nil {
		return nil
	}
	log.Warn("navigation attempt failed, retrying with relaxed wait", zap.Error(err))

	if err := page.Navigate(target, WaitDOMReady, s.cfg.FallbackTimeout); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNavigation, err)
	}
	return nil
}

// discoverCards returns the first card selector that matches anything
func (s *Scraper) discoverCards(ctx context.Context, page Page) (string, bool) {
	for _, sel := range s.profile.Selectors.Cards {
		if ctx.Err() != nil {
			return "", false
		}
		if err := page.WaitForSelector(sel, s.cfg.SelectorTimeout); err == nil {
			return sel, true
		}
	}
	return "", false
}

func (s *Scraper) collectDiagnostics(page Page, scrapeErr *ScrapeError, log *zap.Logger) {
	if html, err := page.Content(); err == nil {
		scrapeErr.PageLength = len(html)
	}

	if s.cfg.ScreenshotDir == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.ScreenshotDir, 0o755); err != nil {
		log.Warn("failed to create screenshot dir", zap.Error(err))
		return
	}
	path := filepath.Join(s.cfg.ScreenshotDir, fmt.Sprintf("scrape-%d.png", time.Now().UnixNano()))
	if err := page.Screenshot(path); err != nil {
		log.Warn("failed to capture screenshot", zap.Error(err))
		return
	}
	scrapeErr.ScreenshotPath = path
}

// triggerLazyLoad scrolls the page so lazy images get real sources. Failures
// here only degrade image quality, so they are logged and ignored.
func (s *Scraper) triggerLazyLoad(ctx context.Context, page Page, cardSelector string, log *zap.Logger) {
	for i := 0; i < s.cfg.ScrollCycles; i++ {
		if err := page.Evaluate(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			log.Debug("scroll down failed", zap.Error(err))
		}
		sleep(ctx, s.cfg.ScrollDelay)
		if err := page.Evaluate(`() => window.scrollTo(0, 0)`); err != nil {
			log.Debug("scroll up failed", zap.Error(err))
		}
		sleep(ctx, s.cfg.ScrollDelay)
	}

	if err := page.Evaluate(scrollCardsScript(cardSelector)); err != nil {
		log.Debug("scroll cards into view failed", zap.Error(err))
	}
	if err := page.Evaluate(lazyImagePatchScript(s.profile.LazyImageAttrs)); err != nil {
		log.Debug("lazy image patch failed", zap.Error(err))
	}
	sleep(ctx, s.cfg.SettleDelay)
}

func scrollCardsScript(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`() => document.querySelectorAll(%s).forEach(el => el.scrollIntoView({block: 'center'}))`, quoted)
}

func lazyImagePatchScript(attrs []string) string {
	quoted, _ := json.Marshal(attrs)
	var b strings.Builder
	b.WriteString(`() => {
  const attrs = `)
	b.Write(quoted)
	b.WriteString(`;
  document.querySelectorAll('img').forEach(img => {
    const src = img.getAttribute('src') || '';
    const lazy = src === '' || src.includes('placeholder') || src.startsWith('data:image') || src.endsWith('.svg');
    if (!lazy) return;
    for (const attr of attrs) {
      const v = img.getAttribute(attr);
      if (v) { img.setAttribute('src', v); return; }
    }
  });
}`)
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
