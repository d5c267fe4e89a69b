package usecase

import (
	"strings"
	"unicode"
)

// MultiColor is the color tag used when a product name names no color
const MultiColor = "Çok Renkli"

type colorEntry struct {
	canonical string
	synonyms  []string
}

// colorDictionary maps Turkish and English color words to a canonical Turkish
// name. Order is significant: matches are reported in this order.
var colorDictionary = []colorEntry{
	{"Mavi", []string{"mavi", "blue"}},
	{"Kırmızı", []string{"kırmızı", "red"}},
	{"Yeşil", []string{"yeşil", "green"}},
	{"Sarı", []string{"sarı", "yellow"}},
	{"Beyaz", []string{"beyaz", "white"}},
	{"Siyah", []string{"siyah", "black"}},
	{"Gri", []string{"gri", "gray", "grey"}},
	{"Kahverengi", []string{"kahverengi", "brown"}},
	{"Pembe", []string{"pembe", "pink"}},
	{"Mor", []string{"mor", "purple"}},
	{"Turuncu", []string{"turuncu", "orange"}},
	{"Lacivert", []string{"lacivert", "navy"}},
	{"Bej", []string{"bej", "beige"}},
}

// matchColors returns the canonical colors mentioned in text, de-duplicated,
// in dictionary order
func matchColors(text string) []string {
	tokens := lowerTokens(text)

	var found []string
	for _, entry := range colorDictionary {
		if anyTokenMatches(tokens, entry.synonyms) {
			found = append(found, entry.canonical)
		}
	}
	return found
}

// canonicalColor maps a single color word to its canonical name, or returns it unchanged
func canonicalColor(word string) string {
	if colors := matchColors(word); len(colors) > 0 {
		return colors[0]
	}
	return strings.TrimSpace(word)
}

// anyTokenMatches reports whether a token equals one of words, or starts with
// one of at least four letters (Turkish suffixes: "maviye", "yeşilli")
func anyTokenMatches(tokens, words []string) bool {
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w || (len([]rune(w)) >= 4 && strings.HasPrefix(tok, w)) {
				return true
			}
		}
	}
	return false
}

// lowerTokens splits text into lower-cased letter/digit runs. Upper-case I is
// lowered both the Unicode way and the Turkish way so "KIRMIZI" and "WHITE"
// both match.
func lowerTokens(text string) []string {
	split := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }

	tokens := strings.FieldsFunc(strings.ToLower(text), split)
	n := len(tokens)
	for i, tok := range strings.FieldsFunc(strings.ToLowerSpecial(unicode.TurkishCase, text), split) {
		if i >= n || tokens[i] != tok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// containsAny reports whether lower-cased text contains any of words
func containsAny(text string, words ...string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
