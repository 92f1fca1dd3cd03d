package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/payment-service/internal/model"
)

const redisAccountPrefix = "payments:account:"

// RedisRepository — резервное хранилище счетов в Redis.
// Каждый счёт хранится JSON-значением под ключом payments:account:<номер>.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepository создаёт репозиторий поверх готового клиента Redis.
func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{
		client: client,
		prefix: redisAccountPrefix,
	}
}

// DialRedis подключается к Redis по адресу addr и проверяет соединение.
func DialRedis(ctx context.Context, addr string) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisRepository(client), nil
}

func (r *RedisRepository) key(accountNumber string) string {
	return r.prefix + accountNumber
}

// Close закрывает клиент Redis.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// GetAccount возвращает счёт по номеру или nil, если счёта нет.
func (r *RedisRepository) GetAccount(ctx context.Context, accountNumber string) (*model.Account, error) {
	data, err := r.client.Get(ctx, r.key(accountNumber)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account from redis: %w", err)
	}

	var acc model.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}

	return &acc, nil
}

// UpdateAccount перезаписывает существующий счёт.
func (r *RedisRepository) UpdateAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	// SET XX пишет только поверх существующего ключа.
	ok, err := r.client.SetXX(ctx, r.key(account.AccountNumber), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update account in redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account.AccountNumber)
	}

	return nil
}

// CreateAccount создаёт новый счёт.
func (r *RedisRepository) CreateAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(account.AccountNumber), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create account in redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.AccountNumber)
	}

	return nil
}
