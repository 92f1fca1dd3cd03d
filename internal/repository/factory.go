package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/payment-service/internal/model"
)

// StoreType определяет, какое хранилище счетов используется.
type StoreType string

const (
	StoreTypeDefault StoreType = "default"
	StoreTypeBackup  StoreType = "backup"
	StoreTypeMemory  StoreType = "memory"
)

// ErrUnknownStoreType возвращается для неизвестного типа хранилища.
var ErrUnknownStoreType = errors.New("unknown data store type")

// ParseStoreType разбирает тип хранилища без учёта регистра. Пустая строка означает default.
func ParseStoreType(s string) (StoreType, error) {
	switch t := StoreType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return StoreTypeDefault, nil
	case StoreTypeDefault, StoreTypeBackup, StoreTypeMemory:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStoreType, s)
	}
}

// Store — полный контракт хранилища счетов.
type Store interface {
	GetAccount(ctx context.Context, accountNumber string) (*model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	CreateAccount(ctx context.Context, account *model.Account) error
	Close() error
}

// StoreConfig описывает выбор и параметры хранилища.
type StoreConfig struct {
	Type         string
	DatabaseURI  string
	RedisAddress string
	// SeedFile — JSON-файл со счетами, создаваемыми при открытии хранилища.
	SeedFile string
}

// NewAccountStore создаёт хранилище счетов согласно cfg.
// Если задан cfg.SeedFile, счета из него создаются в хранилище; существующие не перезаписываются.
func NewAccountStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	t, err := ParseStoreType(cfg.Type)
	if err != nil {
		return nil, err
	}

	var seed []model.Account
	if cfg.SeedFile != "" {
		if seed, err = LoadSeedFile(cfg.SeedFile); err != nil {
			return nil, err
		}
	}

	if t == StoreTypeMemory {
		return NewMemoryRepository(seed...), nil
	}

	store, err := openStore(ctx, t, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := Seed(ctx, store, seed); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

func openStore(ctx context.Context, t StoreType, cfg StoreConfig) (Store, error) {
	switch t {
	case StoreTypeBackup:
		if cfg.RedisAddress == "" {
			return nil, errors.New("redis address is required for backup store")
		}
		r, err := DialRedis(ctx, cfg.RedisAddress)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		if cfg.DatabaseURI == "" {
			return nil, errors.New("database URI is required for default store")
		}
		r, err := NewPostgresRepository(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}
