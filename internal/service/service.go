// Package service реализует проведение платежей со счёта плательщика.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmeshcher/payment-service/internal/metrics"
	"github.com/mmeshcher/payment-service/internal/model"
	"github.com/mmeshcher/payment-service/internal/validation"
)

// ErrAccountNotFound возвращается GetAccount, если счёта нет в хранилище.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore описывает контракт хранилища счетов, используемый сервисом.
// GetAccount возвращает (nil, nil), если счёта нет.
type AccountStore interface {
	GetAccount(ctx context.Context, accountNumber string) (*model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
}

// ValidatorSelector выбирает правило проверки для платёжной системы.
type ValidatorSelector interface {
	GetValidator(scheme model.PaymentScheme) (validation.PaymentValidator, error)
}

// Service проводит платежи: проверяет их правилом платёжной системы и списывает сумму со счёта.
type Service struct {
	store      AccountStore
	validators ValidatorSelector
	metrics    *metrics.Metrics
	locks      *keyedMutex
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics включает учёт платежей в метриках.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService создаёт сервис с указанным хранилищем и фабрикой валидаторов.
func NewService(store AccountStore, validators ValidatorSelector, opts ...Option) *Service {
	s := &Service{
		store:      store,
		validators: validators,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MakePayment проводит платёж req.
//
// Отказ по бизнес-правилам возвращается как результат с Success == false и без ошибки;
// в этом случае счёт не изменяется и не сохраняется. Ошибка возвращается, если платёжная
// система не поддерживается, хранилище недоступно или ctx отменён в ожидании
// другого платежа по тому же счёту.
func (s *Service) MakePayment(ctx context.Context, req model.MakePaymentRequest) (result model.MakePaymentResult, err error) {
	started := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		switch {
		case err != nil:
			outcome = metrics.OutcomeError
		case !result.Success:
			outcome = string(result.Reason)
		}
		s.metrics.ObservePayment(req.PaymentScheme.String(), outcome, time.Since(started).Seconds())
	}()

	unlock, err := s.locks.Lock(ctx, req.DebtorAccountNumber)
	if err != nil {
		return model.MakePaymentResult{}, fmt.Errorf("lock account %s: %w", req.DebtorAccountNumber, err)
	}
	defer unlock()

	account, err := s.store.GetAccount(ctx, req.DebtorAccountNumber)
	if err != nil {
		return model.MakePaymentResult{}, fmt.Errorf("get account %s: %w", req.DebtorAccountNumber, err)
	}

	validator, err := s.validators.GetValidator(req.PaymentScheme)
	if err != nil {
		return model.MakePaymentResult{}, fmt.Errorf("select validator: %w", err)
	}

	if reason := validator.Validate(account, req); reason != model.ReasonNone {
		return model.MakePaymentResult{Success: false, Reason: reason}, nil
	}

	account.Balance = account.Balance.Sub(req.Amount)

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return model.MakePaymentResult{}, fmt.Errorf("update account %s: %w", req.DebtorAccountNumber, err)
	}

	return model.MakePaymentResult{Success: true}, nil
}

// GetAccount возвращает счёт по номеру.
func (s *Service) GetAccount(ctx context.Context, accountNumber string) (*model.Account, error) {
	account, err := s.store.GetAccount(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", accountNumber, err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
