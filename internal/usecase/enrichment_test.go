package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/decorlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnricher_Sentiment(t *testing.T) {
	scorer := fixedScorer{byText: map[string]float64{
		"harika":  5,
		"berbat":  -5,
		"idare":   0,
		"çok iyi": 9,
	}}
	e := NewEnricher(nil, scorer, nil)

	tests := []struct {
		name    string
		reviews []string
		want    float64
	}{
		{name: "no reviews", reviews: nil, want: 0.5},
		{name: "only blank reviews", reviews: []string{"", "  "}, want: 0.5},
		{name: "single positive", reviews: []string{"harika"}, want: 1},
		{name: "mixed", reviews: []string{"harika", "berbat", "idare"}, want: 0.5},
		{name: "clamped above range", reviews: []string{"çok iyi", "idare"}, want: 0.75},
		{name: "blank ignored", reviews: []string{"harika", ""}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.Sentiment(tt.reviews), 0.0001)
		})
	}
}

func TestEnricher_Compatibility(t *testing.T) {
	p := sampleProduct()

	tests := []struct {
		name     string
		response string
		err      error
		want     float64
	}{
		{name: "plain number", response: "0.85", want: 0.85},
		{name: "number in prose", response: "Uyumluluk skoru: 0,7 bence.", want: 0.7},
		{name: "above one", response: "8", want: 1},
		{name: "no number", response: "uyumlu", want: 0.5},
		{name: "call failure", err: domain.ErrCompletionFailure, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockCompletionClient{respond: func(string) (string, error) { return tt.response, tt.err }}
			e := NewEnricher(client, fixedScorer{}, nil)

			got := e.Compatibility(context.Background(), &p, "modern", []string{"mavi", "beyaz"})
			assert.InDelta(t, tt.want, got, 0.0001)

			require.Equal(t, 1, client.calls())
			assert.Equal(t, domain.CompletionOptions{Temperature: 0.3, MaxTokens: 100}, client.opts[0])
			assert.Contains(t, client.prompts[0], p.Name)
			assert.Contains(t, client.prompts[0], "mavi, beyaz")
		})
	}

	assert.Equal(t, 0.5, NewEnricher(nil, nil, nil).Compatibility(context.Background(), &p, "", nil))
}

func TestEnricher_Enrich(t *testing.T) {
	client := &MockCompletionClient{respond: func(string) (string, error) { return "0.9", nil }}
	e := NewEnricher(client, fixedScorer{score: 2}, nil)

	p := sampleProduct()
	p.Reviews = []string{"güzel"}
	q := domain.SearchQuery{Query: "mavi tablo", RoomStyle: "modern", RoomColors: []string{"mavi"}}

	require.NoError(t, e.Enrich(context.Background(), &p, q))
	assert.InDelta(t, 0.7, p.SentimentScore, 0.0001)
	assert.InDelta(t, 0.9, p.CompatibilityScore, 0.0001)
	assert.Equal(t, AdvancedScore(&p, q.Query, 0.9, 0.7), p.AIScore)
	assert.Equal(t, Recommend(&p, q.RoomStyle, q.RoomColors, 0.7), p.AIRecommendation)
}

type panickingScorer struct{}

func (panickingScorer) Score(string) float64 { panic("lexicon not loaded") }

func TestEnricher_EnrichRecoversPanic(t *testing.T) {
	e := NewEnricher(nil, panickingScorer{}, nil)
	p := sampleProduct()
	p.Reviews = []string{"x"}

	err := e.Enrich(context.Background(), &p, domain.SearchQuery{Query: "mavi"})
	assert.True(t, errors.Is(err, domain.ErrEnrichment))
}

func TestEnricher_EnrichCancelled(t *testing.T) {
	e := NewEnricher(nil, fixedScorer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := sampleProduct()
	assert.ErrorIs(t, e.Enrich(ctx, &p, domain.SearchQuery{Query: "mavi"}), domain.ErrEnrichment)
}

func TestEnricher_EnrichBasic(t *testing.T) {
	e := NewEnricher(nil, fixedScorer{score: 0}, nil)
	p := sampleProduct()

	e.EnrichBasic(&p, "mavi", BasicRecommendation)
	assert.Equal(t, BasicScore(&p, "mavi"), p.AIScore)
	assert.Equal(t, BasicRecommendation, p.AIRecommendation)
	assert.Equal(t, 0.5, p.CompatibilityScore)
	assert.Equal(t, 0.5, p.SentimentScore)
}
