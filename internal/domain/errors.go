package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCompletionFailure is returned when the text completion endpoint fails
	ErrCompletionFailure = errors.New("text completion request failed")

	// ErrFeatureExtraction is returned when the AI response cannot be turned into query features
	ErrFeatureExtraction = errors.New("feature extraction failed")

	// ErrNavigation is returned when the marketplace search page cannot be loaded
	ErrNavigation = errors.New("marketplace navigation failed")

	// ErrSelectorDiscovery is returned when no known product card selector matches
	ErrSelectorDiscovery = errors.New("no product card selector matched")

	// ErrCandidateSource is returned when the candidate source fails or panics
	ErrCandidateSource = errors.New("candidate source failed")

	// ErrNoCandidates is returned when a page was scraped but no card was accepted
	ErrNoCandidates = errors.New("no product candidates accepted")

	// ErrCandidateRejected marks a card missing a required field
	ErrCandidateRejected = errors.New("candidate missing required field")

	// ErrInvalidProductURL is returned when a product URL is malformed or not on the marketplace
	ErrInvalidProductURL = errors.New("invalid product URL")

	// ErrCommentScrape is returned when a product's review page cannot be read
	ErrCommentScrape = errors.New("comment scrape failed")

	// ErrEnrichment is returned when a single product cannot be enriched
	ErrEnrichment = errors.New("product enrichment failed")
)
