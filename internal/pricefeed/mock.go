package pricefeed

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// MockAggregator is an in-process price source for development networks.
type MockAggregator struct {
	mu        sync.RWMutex
	decimals  uint8
	answer    *big.Int
	round     uint64
	updatedAt time.Time
}

// NewMockAggregator builds a mock feed reporting initialAnswer at the given precision.
func NewMockAggregator(decimals uint8, initialAnswer *big.Int) *MockAggregator {
	m := &MockAggregator{decimals: decimals}
	m.UpdateAnswer(initialAnswer)
	return m
}

// UpdateAnswer publishes a new round with the given answer.
func (m *MockAggregator) UpdateAnswer(answer *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answer = new(big.Int).Set(answer)
	m.round++
	m.updatedAt = time.Now().UTC()
}

// CurrentRate returns the latest round.
func (m *MockAggregator) CurrentRate(_ context.Context) (Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Rate{
		Value:     new(big.Int).Set(m.answer),
		Decimals:  m.decimals,
		RoundID:   m.round,
		UpdatedAt: m.updatedAt,
	}, nil
}
