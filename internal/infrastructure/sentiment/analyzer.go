package sentiment

import (
	"strings"
	"unicode"
)

// Analyzer scores review text by summing word valences from an AFINN-style
// lexicon (-5..+5 per word). Covers English and Turkish review vocabulary.
type Analyzer struct {
	lexicon   map[string]int
	negations map[string]struct{}
}

// NewAnalyzer creates an analyzer with the built-in lexicon
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithLexicon(defaultLexicon)
}

// NewAnalyzerWithLexicon creates an analyzer over a custom word→valence map
func NewAnalyzerWithLexicon(lexicon map[string]int) *Analyzer {
	lex := make(map[string]int, len(lexicon))
	for word, v := range lexicon {
		lex[strings.ToLower(word)] = v
	}
	return &Analyzer{lexicon: lex, negations: defaultNegations}
}

// Score returns the summed valence of text. A negation word directly before a
// scored word flips its sign; Turkish "değil" after a scored word does the same.
func (a *Analyzer) Score(text string) float64 {
	tokens := tokenize(text)

	total := 0
	for i, tok := range tokens {
		v, ok := a.lexicon[tok]
		if !ok {
			continue
		}
		if i > 0 && a.isNegation(tokens[i-1]) {
			v = -v
		} else if i+1 < len(tokens) && tokens[i+1] == "değil" {
			v = -v
		}
		total += v
	}
	return float64(total)
}

func (a *Analyzer) isNegation(tok string) bool {
	_, ok := a.negations[tok]
	return ok
}

// tokenize lower-cases text and splits it on anything that is not a letter,
// digit or apostrophe
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

var defaultNegations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "don't": {}, "doesn't": {}, "isn't": {},
	"wasn't": {}, "didn't": {}, "hiç": {}, "asla": {},
}

var defaultLexicon = map[string]int{
	// English
	"amazing": 4, "awesome": 4, "beautiful": 3, "best": 3, "brilliant": 4,
	"excellent": 3, "fantastic": 4, "fine": 2, "good": 3, "gorgeous": 3,
	"great": 3, "happy": 3, "like": 2, "love": 3, "loved": 3, "lovely": 3,
	"nice": 3, "perfect": 3, "pleased": 3, "pretty": 1, "quality": 2,
	"recommend": 2, "recommended": 2, "satisfied": 2, "stunning": 4,
	"superb": 5, "wonderful": 4, "worth": 2, "fast": 1, "elegant": 2,
	"bad": -3, "awful": -3, "broken": -1, "cheap": -1, "damaged": -3,
	"disappointed": -2, "disappointing": -2, "horrible": -3, "poor": -2,
	"terrible": -3, "ugly": -3, "useless": -2, "waste": -1, "worst": -3,
	"wrong": -2, "late": -1, "faded": -2, "hate": -3, "refund": -2,
	"return": -1, "scratched": -2, "torn": -2,

	// Turkish
	"güzel": 3, "harika": 4, "mükemmel": 4, "muhteşem": 4, "süper": 3,
	"iyi": 2, "kaliteli": 3, "beğendim": 3, "bayıldım": 4, "tavsiye": 2,
	"memnunum": 3, "memnun": 2, "şık": 2, "hızlı": 1, "sağlam": 2,
	"teşekkürler": 2, "başarılı": 3, "uygun": 1, "zarif": 2, "canlı": 1,
	"kötü": -3, "berbat": -4, "rezalet": -4, "kırık": -3, "hasarlı": -3,
	"kalitesiz": -3, "beğenmedim": -3, "pişman": -3, "iade": -2,
	"solgun": -2, "yırtık": -3, "geç": -1, "eksik": -2, "sorunlu": -2,
	"vasat": -1, "sahte": -3,
}
