package usecase

import (
	"math/rand"
	"sync"
	"time"

	"github.com/decorlens/backend/internal/domain"
)

// lockedRand is a domain.RandomSource safe for use from enrichment goroutines
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource returns a goroutine-safe source seeded with seed
func NewRandomSource(seed int64) domain.RandomSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRandomSource returns a source seeded from the clock
func NewTimeSeededRandomSource() domain.RandomSource {
	return NewRandomSource(time.Now().UnixNano())
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
