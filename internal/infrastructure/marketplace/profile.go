package marketplace

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/decorlens/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// Selectors lists CSS selectors in priority order for each card field
type Selectors struct {
	Cards         []string `yaml:"cards"`
	Links         []string `yaml:"links"`
	Name          []string `yaml:"name"`
	Price         []string `yaml:"price"`
	OriginalPrice []string `yaml:"original_price"`
	Rating        []string `yaml:"rating"`
	ReviewCount   []string `yaml:"review_count"`
	Reviews       []string `yaml:"reviews"`
	FreeShipping  []string `yaml:"free_shipping"`
	// Comments match review texts on a product's review page
	Comments []string `yaml:"comments"`
	// CardContainer is matched with Closest() when a card's own images are all placeholders
	CardContainer string `yaml:"card_container"`
}

// StockPhotos are used when no product image can be resolved, keyed by name keyword
type StockPhotos struct {
	Canvas    string `yaml:"canvas"`
	Frame     string `yaml:"frame"`
	WallDecor string `yaml:"wall_decor"`
	Other     string `yaml:"other"`
}

// SiteProfile is everything site-specific the scraper needs: where to search,
// how to find card fields and how to resolve images. It drifts with the
// marketplace's DOM, so it lives in data rather than code.
type SiteProfile struct {
	Name             string      `yaml:"name"`
	BaseURL          string      `yaml:"base_url"`
	SearchURL        string      `yaml:"search_url"` // %s is replaced with the escaped search term
	ReviewsPath      string      `yaml:"reviews_path"` // appended to a product path for its review page
	CDNHost          string      `yaml:"cdn_host"`
	CDNImagePattern  string      `yaml:"cdn_image_pattern"` // %s is replaced with the product id
	ProductIDPattern string      `yaml:"product_id_pattern"`
	LazyImageAttrs   []string    `yaml:"lazy_image_attrs"`
	Selectors        Selectors   `yaml:"selectors"`
	StockPhotos      StockPhotos `yaml:"stock_photos"`

	productID *regexp.Regexp
}

// TrendyolProfile returns the built-in profile for trendyol.com
func TrendyolProfile() *SiteProfile {
	p := &SiteProfile{
		Name:             "Trendyol",
		BaseURL:          "https://www.trendyol.com",
		SearchURL:        "https://www.trendyol.com/sr?q=%s",
		ReviewsPath:      "/yorumlar",
		CDNHost:          "cdn.dsmcdn.com",
		CDNImagePattern:  "https://cdn.dsmcdn.com/mnresize/400/-/ty/product/%s_org_zoom.jpg",
		ProductIDPattern: `-p-(\d+)`,
		LazyImageAttrs:   []string{"data-src", "data-original", "data-lazy"},
		Selectors: Selectors{
			Cards:         []string{".p-card-wrppr", ".product-down", ".prdct-cntnr-wrppr", "[data-testid='product-card']"},
			Links:         []string{"a[href*='-p-']", "a.p-card-chldrn-cntnr", "a[href]"},
			Name:          []string{".prdct-desc-cntnr-name", ".prdct-desc-cntnr-ttl", ".name", ".product-title"},
			Price:         []string{".prc-box-dscntd", ".discounted", ".prc-box-sllng", ".new_price", "[class*='price']"},
			OriginalPrice: []string{".prc-box-orgnl", ".original"},
			Rating:        []string{".rating-score", ".rating"},
			ReviewCount:   []string{".ratingCount", ".rating-text", ".comment-count"},
			Reviews:       []string{".comment-text"},
			FreeShipping:  []string{".free-cargo", ".stmp.fc", "[class*='free-shipping']"},
			Comments:      []string{".comment-text", ".review-comment"},
			CardContainer: ".p-card-wrppr, .product-down, .prdct-cntnr-wrppr",
		},
		StockPhotos: StockPhotos{
			Canvas:    "https://images.unsplash.com/photo-1541961017774-22349e4a1262?w=400&h=400&fit=crop",
			Frame:     "https://images.unsplash.com/photo-1513519245088-0e12902e35ca?w=400&h=400&fit=crop",
			WallDecor: "https://images.unsplash.com/photo-1524758631624-e2822e304c36?w=400&h=400&fit=crop",
			Other:     "https://images.unsplash.com/photo-1549887534-1541e9326642?w=400&h=400&fit=crop",
		},
	}
	p.productID = regexp.MustCompile(p.ProductIDPattern)
	return p
}

// LoadProfile reads a profile from a YAML file. Fields absent from the file
// keep the Trendyol defaults.
func LoadProfile(path string) (*SiteProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile over the Trendyol defaults
func ParseProfile(data []byte) (*SiteProfile, error) {
	p := TrendyolProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse site profile: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *SiteProfile) compile() error {
	if p.BaseURL == "" || p.SearchURL == "" {
		return fmt.Errorf("site profile %q: base_url and search_url are required", p.Name)
	}
	if !strings.Contains(p.SearchURL, "%s") {
		return fmt.Errorf("site profile %q: search_url must contain %%s", p.Name)
	}
	if len(p.Selectors.Cards) == 0 {
		return fmt.Errorf("site profile %q: at least one card selector is required", p.Name)
	}

	re, err := regexp.Compile(p.ProductIDPattern)
	if err != nil {
		return fmt.Errorf("site profile %q: invalid product_id_pattern: %w", p.Name, err)
	}
	p.productID = re
	return nil
}

// SearchPageURL returns the results page URL for term
func (p *SiteProfile) SearchPageURL(term string) string {
	return fmt.Sprintf(p.SearchURL, url.QueryEscape(term))
}

// ProductID extracts the marketplace product id from a product link, or ""
func (p *SiteProfile) ProductID(link string) string {
	if p.productID == nil || p.ProductIDPattern == "" {
		return ""
	}
	m := p.productID.FindStringSubmatch(link)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ReviewsPageURL returns the review page for a product link on this site.
// Root-relative links are resolved against BaseURL; links to other hosts are
// rejected with ErrInvalidProductURL. The query string is kept.
func (p *SiteProfile) ReviewsPageURL(productURL string) (string, error) {
	raw := strings.TrimSpace(productURL)
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		raw = strings.TrimRight(p.BaseURL, "/") + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidProductURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidProductURL, u.Scheme)
	}
	if !p.ownsHost(u.Hostname()) {
		return "", fmt.Errorf("%w: host %q is not %s", domain.ErrInvalidProductURL, u.Hostname(), p.Name)
	}

	if p.ReviewsPath != "" && !strings.HasSuffix(u.Path, p.ReviewsPath) {
		u.Path = strings.TrimRight(u.Path, "/") + p.ReviewsPath
		u.RawPath = ""
	}
	return u.String(), nil
}

// ownsHost reports whether host is the site's host or one of its subdomains
func (p *SiteProfile) ownsHost(host string) bool {
	base, err := url.Parse(p.BaseURL)
	if err != nil || host == "" {
		return false
	}
	site := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	host = strings.ToLower(host)
	return host == site || strings.HasSuffix(host, "."+site)
}
