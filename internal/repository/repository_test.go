package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/payment-service/internal/model"
)

func testAccount(number string) model.Account {
	return model.Account{
		AccountNumber:         number,
		Balance:               decimal.RequireFromString("100.50"),
		Status:                model.AccountStatusLive,
		AllowedPaymentSchemes: model.AllowedBacs | model.AllowedChaps,
	}
}

// exerciseStore проверяет общий контракт хранилища на любой реализации.
func exerciseStore(t *testing.T, store Store, number string) {
	t.Helper()
	ctx := context.Background()

	acc, err := store.GetAccount(ctx, number)
	require.NoError(t, err)
	require.Nil(t, acc, "account must be absent before creation")

	missing := testAccount(number)
	err = store.UpdateAccount(ctx, &missing)
	require.ErrorIs(t, err, ErrAccountNotFound)

	created := testAccount(number)
	require.NoError(t, store.CreateAccount(ctx, &created))
	require.ErrorIs(t, store.CreateAccount(ctx, &created), ErrAccountExists)

	acc, err = store.GetAccount(ctx, number)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, number, acc.AccountNumber)
	assert.True(t, acc.Balance.Equal(created.Balance), "balance = %s", acc.Balance)
	assert.Equal(t, model.AccountStatusLive, acc.Status)
	assert.Equal(t, created.AllowedPaymentSchemes, acc.AllowedPaymentSchemes)

	acc.Balance = acc.Balance.Sub(decimal.RequireFromString("0.50"))
	acc.Status = model.AccountStatusDisabled
	require.NoError(t, store.UpdateAccount(ctx, acc))

	updated, err := store.GetAccount(ctx, number)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(100)), "balance = %s", updated.Balance)
	assert.Equal(t, model.AccountStatusDisabled, updated.Status)
}

func TestMemoryRepository(t *testing.T) {
	exerciseStore(t, NewMemoryRepository(), "12345678")
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepository(testAccount("1"))

	acc, err := r.GetAccount(context.Background(), "1")
	require.NoError(t, err)
	acc.Balance = decimal.Zero

	again, err := r.GetAccount(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(decimal.RequireFromString("100.50")))
}

func TestParseStoreType(t *testing.T) {
	tests := []struct {
		in      string
		want    StoreType
		wantErr bool
	}{
		{in: "", want: StoreTypeDefault},
		{in: "Default", want: StoreTypeDefault},
		{in: "Backup", want: StoreTypeBackup},
		{in: "BACKUP", want: StoreTypeBackup},
		{in: "memory", want: StoreTypeMemory},
		{in: "mysql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStoreType(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownStoreType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAccountStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewAccountStore(ctx, StoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepository{}, store)
	require.NoError(t, store.Close())

	_, err = NewAccountStore(ctx, StoreConfig{Type: "unknown"})
	require.ErrorIs(t, err, ErrUnknownStoreType)

	_, err = NewAccountStore(ctx, StoreConfig{Type: "backup"})
	require.Error(t, err)

	_, err = NewAccountStore(ctx, StoreConfig{})
	require.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: true},
		{name: "deadlock", err: fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	r := &PostgresRepository{delays: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = r.withRetry(context.Background(), func() error {
		calls++
		return errors.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	r, err := NewPostgresRepository(context.Background(), dsn)
	require.NoError(t, err)
	defer r.Close()

	number := fmt.Sprintf("pg-%d", time.Now().UnixNano())
	defer r.pool.Exec(context.Background(), `DELETE FROM accounts WHERE account_number = $1`, number)

	exerciseStore(t, r, number)
}

func TestPostgresRepository_KeepsFullBalancePrecision(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	ctx := context.Background()
	r, err := NewPostgresRepository(ctx, dsn)
	require.NoError(t, err)
	defer r.Close()

	number := fmt.Sprintf("pg-scale-%d", time.Now().UnixNano())
	defer r.pool.Exec(ctx, `DELETE FROM accounts WHERE account_number = $1`, number)

	acc := &model.Account{
		AccountNumber:         number,
		Balance:               decimal.NewFromInt(100),
		Status:                model.AccountStatusLive,
		AllowedPaymentSchemes: model.AllowedBacs,
	}
	require.NoError(t, r.CreateAccount(ctx, acc))

	acc.Balance = acc.Balance.Sub(decimal.RequireFromString("0.004"))
	require.NoError(t, r.UpdateAccount(ctx, acc))

	got, err := r.GetAccount(ctx, number)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("99.996")), "balance = %s", got.Balance)
}

func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS is not set")
	}

	r, err := DialRedis(context.Background(), addr)
	require.NoError(t, err)
	defer r.Close()

	number := fmt.Sprintf("redis-%d", time.Now().UnixNano())
	defer r.client.Del(context.Background(), r.key(number))

	exerciseStore(t, r, number)
}
