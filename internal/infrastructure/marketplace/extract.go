package marketplace

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/decorlens/backend/internal/domain"
)

// MaxCandidates is the most cards accepted from one results page
const MaxCandidates = 10

// ExtractCandidates parses an HTML snapshot of a results page and returns up
// to MaxCandidates accepted cards matched by cardSelector. Cards missing a
// name, price, image or link are dropped.
func ExtractCandidates(html, cardSelector string, profile *SiteProfile) ([]domain.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	var candidates []domain.RawCandidate
	doc.Find(cardSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		c := extractCard(card, profile)
		if c.Valid() {
			candidates = append(candidates, c)
		}
		return len(candidates) < MaxCandidates
	})

	return candidates, nil
}

func extractCard(card *goquery.Selection, p *SiteProfile) domain.RawCandidate {
	sel := p.Selectors

	c := domain.RawCandidate{Source: p.Name}
	c.Link = extractLink(card, p)
	c.ProductID = p.ProductID(c.Link)

	c.Name = collapse(card.AttrOr("title", ""))
	if c.Name == "" {
		c.Name = firstText(card, sel.Name)
	}

	c.PriceText = firstPriceText(card, sel.Price)
	c.OriginalPriceText = firstPriceText(card, sel.OriginalPrice)
	if c.OriginalPriceText == c.PriceText {
		c.OriginalPriceText = ""
	}
	c.RatingText = firstText(card, sel.Rating)
	c.ReviewCountText = firstText(card, sel.ReviewCount)
	c.Reviews = allTexts(card, sel.Reviews)
	c.FreeShipping = anyMatch(card, sel.FreeShipping)

	c.Image, c.ImageCandidates = resolveImage(card, c.ProductID, c.Name, p)
	return c
}

func extractLink(card *goquery.Selection, p *SiteProfile) string {
	if goquery.NodeName(card) == "a" {
		if href := strings.TrimSpace(card.AttrOr("href", "")); href != "" {
			return absoluteURL(href, p.BaseURL)
		}
	}
	for _, s := range p.Selectors.Links {
		if href := strings.TrimSpace(card.Find(s).First().AttrOr("href", "")); href != "" {
			return absoluteURL(href, p.BaseURL)
		}
	}
	return ""
}

// resolveImage walks the image fallback chain and returns the chosen URL plus
// every URL seen on the way
func resolveImage(card *goquery.Selection, productID, name string, p *SiteProfile) (string, []string) {
	seen := newURLSet()
	cdnBase := "https://" + p.CDNHost

	img := card.Find("img").First()
	if goquery.NodeName(card) == "img" {
		img = card
	}

	// lazy attributes first, then the live src; placeholders are skipped
	for _, attr := range append(append([]string{}, p.LazyImageAttrs...), "src") {
		v := strings.TrimSpace(img.AttrOr(attr, ""))
		if v == "" {
			continue
		}
		u := absoluteURL(v, cdnBase)
		seen.add(u)
		if !placeholderLike(u) {
			return u, seen.list()
		}
	}

	if u := findCDNImage(card.Find("img"), p, seen); u != "" {
		return u, seen.list()
	}

	if sel := p.Selectors.CardContainer; sel != "" {
		if container := card.Parent().Closest(sel); container.Length() > 0 {
			if u := findCDNImage(container.Find("img"), p, seen); u != "" {
				return u, seen.list()
			}
		}
	}

	if productID != "" && p.CDNImagePattern != "" {
		u := fmt.Sprintf(p.CDNImagePattern, productID)
		seen.add(u)
		return u, seen.list()
	}

	u := stockPhoto(name, p.StockPhotos)
	if u != "" {
		seen.add(u)
	}
	return u, seen.list()
}

func findCDNImage(imgs *goquery.Selection, p *SiteProfile, seen *urlSet) string {
	cdnBase := "https://" + p.CDNHost
	attrs := append(append([]string{}, p.LazyImageAttrs...), "src")

	found := ""
	imgs.EachWithBreak(func(_ int, img *goquery.Selection) bool {
		for _, attr := range attrs {
			v := strings.TrimSpace(img.AttrOr(attr, ""))
			if v == "" {
				continue
			}
			u := absoluteURL(v, cdnBase)
			seen.add(u)
			if strings.Contains(u, p.CDNHost) && !placeholderLike(u) {
				found = u
				return false
			}
		}
		return true
	})
	return found
}

func stockPhoto(name string, photos StockPhotos) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "kanvas") || strings.Contains(lower, "canvas"):
		return photos.Canvas
	case strings.Contains(lower, "çerçeve") || strings.Contains(lower, "frame"):
		return photos.Frame
	case strings.Contains(lower, "duvar") || strings.Contains(lower, "wall") || strings.Contains(lower, "dekor"):
		return photos.WallDecor
	default:
		return photos.Other
	}
}

// placeholderLike reports whether an image URL is a lazy-load stand-in rather than a product photo
func placeholderLike(u string) bool {
	lower := strings.ToLower(u)
	return len(u) < 15 ||
		strings.Contains(lower, "placeholder") ||
		strings.Contains(lower, "svg") ||
		strings.Contains(lower, "data:image")
}

// absoluteURL resolves protocol-relative and root-relative references against base
func absoluteURL(ref, base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "data:"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return base + ref
	default:
		return base + "/" + ref
	}
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := collapse(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstPriceText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		t := collapse(s.Find(sel).First().Text())
		if strings.ContainsAny(t, "0123456789") {
			return t
		}
	}
	return ""
}

func allTexts(s *goquery.Selection, selectors []string) []string {
	var out []string
	for _, sel := range selectors {
		s.Find(sel).Each(func(_ int, el *goquery.Selection) {
			if t := collapse(el.Text()); t != "" {
				out = append(out, t)
			}
		})
	}
	return out
}

func anyMatch(s *goquery.Selection, selectors []string) bool {
	for _, sel := range selectors {
		if s.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type urlSet struct {
	order []string
	index map[string]struct{}
}

func newURLSet() *urlSet {
	return &urlSet{index: make(map[string]struct{})}
}

func (s *urlSet) add(u string) {
	if _, ok := s.index[u]; ok {
		return
	}
	s.index[u] = struct{}{}
	s.order = append(s.order, u)
}

func (s *urlSet) list() []string {
	return s.order
}
