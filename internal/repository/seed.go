package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/payment-service/internal/model"
)

// SeedAccount — описание счёта в файле начальных данных.
//
//	[{"accountNumber":"123","balance":"100.00","status":"LIVE","allowedPaymentSchemes":["Bacs","Chaps"]}]
type SeedAccount struct {
	AccountNumber         string          `json:"accountNumber"`
	Balance               decimal.Decimal `json:"balance"`
	Status                string          `json:"status"`
	AllowedPaymentSchemes []string        `json:"allowedPaymentSchemes"`
}

// Account проверяет описание и превращает его в счёт. Пустой статус означает LIVE.
func (s SeedAccount) Account() (model.Account, error) {
	if s.AccountNumber == "" {
		return model.Account{}, errors.New("account number is required")
	}

	status := model.AccountStatusLive
	if s.Status != "" {
		status = model.AccountStatus(strings.ToUpper(strings.TrimSpace(s.Status)))
	}
	if !status.Valid() {
		return model.Account{}, fmt.Errorf("unknown account status %q", s.Status)
	}

	var allowed model.AllowedPaymentSchemes
	for _, name := range s.AllowedPaymentSchemes {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ps, err := model.ParsePaymentScheme(name)
		if err != nil {
			return model.Account{}, err
		}
		allowed |= model.AllowedFor(ps)
	}

	return model.Account{
		AccountNumber:         s.AccountNumber,
		Balance:               s.Balance,
		Status:                status,
		AllowedPaymentSchemes: allowed,
	}, nil
}

// ReadSeed читает JSON-массив SeedAccount.
func ReadSeed(r io.Reader) ([]model.Account, error) {
	var seeds []SeedAccount
	if err := json.NewDecoder(r).Decode(&seeds); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	accounts := make([]model.Account, 0, len(seeds))
	seen := make(map[string]struct{}, len(seeds))
	for i, s := range seeds {
		acc, err := s.Account()
		if err != nil {
			return nil, fmt.Errorf("seed account #%d: %w", i, err)
		}
		if _, ok := seen[acc.AccountNumber]; ok {
			return nil, fmt.Errorf("seed account #%d: %w: %s", i, ErrAccountExists, acc.AccountNumber)
		}
		seen[acc.AccountNumber] = struct{}{}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// LoadSeedFile читает начальные счета из файла path.
func LoadSeedFile(path string) ([]model.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return ReadSeed(f)
}

// Seed создаёт счета в store. Уже существующие счета не перезаписываются.
// Возвращает число созданных счетов.
func Seed(ctx context.Context, store Store, accounts []model.Account) (int, error) {
	created := 0
	for i := range accounts {
		err := store.CreateAccount(ctx, &accounts[i])
		if errors.Is(err, ErrAccountExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed account %s: %w", accounts[i].AccountNumber, err)
		}
		created++
	}
	return created, nil
}
