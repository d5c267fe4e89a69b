package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/decorlens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled int
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockCompletionClient answers prompts with respond and records every call
type MockCompletionClient struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
	opts    []domain.CompletionOptions
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()
	return m.respond(prompt)
}

func (m *MockCompletionClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// MockCandidateSource returns fixed candidates or an error
type MockCandidateSource struct {
	candidates []domain.RawCandidate
	err        error
	terms      []string
}

func (m *MockCandidateSource) FetchCandidates(ctx context.Context, searchTerm string) ([]domain.RawCandidate, error) {
	m.terms = append(m.terms, searchTerm)
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// fixedScorer scores every text the same, or by exact text when set
type fixedScorer struct {
	score  float64
	byText map[string]float64
}

func (f fixedScorer) Score(text string) float64 {
	if v, ok := f.byText[text]; ok {
		return v
	}
	return f.score
}

// sequenceRandom replays fixed values
type sequenceRandom struct {
	floats []float64
	ints   []int
}

func (s *sequenceRandom) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *sequenceRandom) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0] % n
	s.ints = s.ints[1:]
	return v
}

// MockCommentSource returns fixed review texts or an error
type MockCommentSource struct {
	comments []string
	err      error
	panics   bool
	urls     []string
}

func (m *MockCommentSource) FetchComments(ctx context.Context, productURL string) ([]string, error) {
	m.urls = append(m.urls, productURL)
	if m.panics {
		panic("browser driver crashed")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.comments, nil
}
