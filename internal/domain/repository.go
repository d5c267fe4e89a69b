package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CompletionOptions tunes a single text completion
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// TextCompletionClient generates text for a prompt
type TextCompletionClient interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// CandidateSource fetches raw product cards for a marketplace search term
type CandidateSource interface {
	FetchCandidates(ctx context.Context, searchTerm string) ([]RawCandidate, error)
}

// CommentSource fetches the customer review texts of a single product page
type CommentSource interface {
	FetchComments(ctx context.Context, productURL string) ([]string, error)
}

// SentimentScorer scores a text on a signed scale (negative = unfavourable)
type SentimentScorer interface {
	Score(text string) float64
}

// RandomSource supplies the pseudo-random fallback values used during normalization
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}
