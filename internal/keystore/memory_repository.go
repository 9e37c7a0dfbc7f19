package keystore

import (
	"context"
	"sync"
	"time"

	"github.com/congo-pay/fundme/internal/ledger"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[ledger.Address]Account
}

// NewMemoryRepository builds an in-memory account store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[ledger.Address]Account)}
}

func (r *memoryRepository) Create(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Address]; exists {
		return ErrAccountExists
	}
	r.accounts[account.Address] = account
	return nil
}

func (r *memoryRepository) Find(_ context.Context, addr ledger.Address) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[addr]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (r *memoryRepository) RecordUnlock(_ context.Context, addr ledger.Address, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[addr]
	if !ok {
		return ErrAccountNotFound
	}
	at = at.UTC()
	account.LastUnlockedAt = &at
	r.accounts[addr] = account
	return nil
}

func (r *memoryRepository) BumpTokenVersion(_ context.Context, addr ledger.Address) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[addr]
	if !ok {
		return 0, ErrAccountNotFound
	}
	account.TokenVersion++
	r.accounts[addr] = account
	return account.TokenVersion, nil
}
