package mocks

import (
	"sync"

	"github.com/mcoot/snookercounter/internal/dependencies/random"
)

// MockRandom replays queued values. Once the queue is empty it returns 0.
type MockRandom struct {
	mu      sync.Mutex
	results []int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, clamped to [0, n)
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 || n <= 0 {
		return 0
	}
	result := r.results[0]
	r.results = r.results[1:]
	return min(max(result, 0), n-1)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, values...)
}
