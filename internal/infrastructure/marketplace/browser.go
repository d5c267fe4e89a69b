package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// WaitState is the page lifecycle event navigation waits for
type WaitState string

const (
	WaitNetworkIdle WaitState = "networkidle"
	WaitDOMReady    WaitState = "domcontentloaded"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// blockedResourceTypes are aborted by the route filter
var blockedResourceTypes = map[string]bool{
	"stylesheet": true,
	"font":       true,
	"media":      true,
}

// hides the most common automation fingerprint
const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Page is the browser page surface the scraper drives
type Page interface {
	Navigate(url string, waitUntil WaitState, timeout time.Duration) error
	WaitForSelector(selector string, timeout time.Duration) error
	Evaluate(script string) error
	Content() (string, error)
	Screenshot(path string) error
}

// Browser opens isolated pages. The returned release func closes the page and
// everything opened for it.
type Browser interface {
	NewPage(ctx context.Context) (Page, func(), error)
}

// BrowserConfig holds headless browser launch settings
type BrowserConfig struct {
	ExecutablePath string
	UserAgent      string
	Locale         string
	ViewportWidth  int
	ViewportHeight int
}

// PlaywrightBrowser launches a fresh headless Chromium per page
type PlaywrightBrowser struct {
	cfg    BrowserConfig
	logger *zap.Logger
}

// NewPlaywrightBrowser creates a browser launcher
func NewPlaywrightBrowser(cfg BrowserConfig, logger *zap.Logger) *PlaywrightBrowser {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Locale == "" {
		cfg.Locale = "tr-TR"
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		cfg.ViewportWidth, cfg.ViewportHeight = 1366, 768
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaywrightBrowser{cfg: cfg, logger: logger}
}

// NewPage starts playwright, launches Chromium and opens a page in a new
// context with the configured fingerprint and resource filter
func (b *PlaywrightBrowser) NewPage(ctx context.Context) (Page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(format string, err error) (Page, func(), error) {
		release()
		return nil, nil, fmt.Errorf(format, err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	closers = append(closers, func() {
		if err := pw.Stop(); err != nil {
			b.logger.Warn("failed to stop playwright", zap.Error(err))
		}
	})

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	}
	if b.cfg.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(b.cfg.ExecutablePath)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		return fail("failed to launch browser: %w", err)
	}
	closers = append(closers, func() { _ = browser.Close() })

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(b.cfg.UserAgent),
		Locale:    playwright.String(b.cfg.Locale),
		Viewport: &playwright.Size{
			Width:  b.cfg.ViewportWidth,
			Height: b.cfg.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
		},
	})
	if err != nil {
		return fail("failed to create browser context: %w", err)
	}
	closers = append(closers, func() { _ = bctx.Close() })

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		return fail("failed to install init script: %w", err)
	}

	if err := bctx.Route("**/*", func(route playwright.Route) {
		if blockedResourceTypes[route.Request().ResourceType()] {
			_ = route.Abort()
			return
		}
		_ = route.Continue()
	}); err != nil {
		return fail("failed to install route filter: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		return fail("failed to open page: %w", err)
	}
	closers = append(closers, func() { _ = page.Close() })

	return &playwrightPage{page: page}, release, nil
}

// playwrightPage adapts playwright.Page to Page
type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Navigate(url string, waitUntil WaitState, timeout time.Duration) error {
	state := playwright.WaitUntilStateNetworkidle
	if waitUntil == WaitDOMReady {
		state = playwright.WaitUntilStateDomcontentloaded
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: state,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) WaitForSelector(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *playwrightPage) Evaluate(script string) error {
	_, err := p.page.Evaluate(script)
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}
