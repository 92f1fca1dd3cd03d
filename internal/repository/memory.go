package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmeshcher/payment-service/internal/model"
)

// MemoryRepository хранит счета в памяти процесса. Используется для локального запуска и тестов.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

// NewMemoryRepository создаёт хранилище, заполненное копиями accounts.
func NewMemoryRepository(accounts ...model.Account) *MemoryRepository {
	r := &MemoryRepository{accounts: make(map[string]model.Account, len(accounts))}
	for _, a := range accounts {
		r.accounts[a.AccountNumber] = a
	}
	return r
}

// Close ничего не делает.
func (r *MemoryRepository) Close() error { return nil }

// GetAccount возвращает копию счёта или nil, если счёта нет.
func (r *MemoryRepository) GetAccount(_ context.Context, accountNumber string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[accountNumber]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

// UpdateAccount перезаписывает существующий счёт.
func (r *MemoryRepository) UpdateAccount(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.AccountNumber]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account.AccountNumber)
	}
	r.accounts[account.AccountNumber] = *account
	return nil
}

// CreateAccount создаёт новый счёт.
func (r *MemoryRepository) CreateAccount(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.AccountNumber]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.AccountNumber)
	}
	r.accounts[account.AccountNumber] = *account
	return nil
}
