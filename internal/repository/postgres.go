// Package repository содержит реализации хранилища счетов.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/payment-service/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrAccountNotFound возвращается при обновлении несуществующего счёта.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists возвращается при попытке создать уже существующий счёт.
	ErrAccountExists = errors.New("account already exists")
)

// PostgresRepository хранит счета в PostgreSQL.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	delays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{
		pool:   pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет fn при конфликтах сериализации, взаимных блокировках и обрывах соединения.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(r.delays); i++ {
		err = fn()
		if err == nil || !isRetryable(err) || i == len(r.delays) {
			return err
		}

		timer := time.NewTimer(r.delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetAccount возвращает счёт по номеру или nil, если счёта нет.
func (r *PostgresRepository) GetAccount(ctx context.Context, accountNumber string) (*model.Account, error) {
	var acc *model.Account

	err := r.withRetry(ctx, func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT account_number, balance::text, status, allowed_payment_schemes
			 FROM accounts
			 WHERE account_number = $1`,
			accountNumber,
		)

		a, err := scanAccount(row)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return acc, nil
}

// UpdateAccount сохраняет баланс, статус и набор разрешённых платёжных систем счёта.
// Строка счёта блокируется на время обновления.
func (r *PostgresRepository) UpdateAccount(ctx context.Context, account *model.Account) error {
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var dummy int
		err = tx.QueryRow(ctx,
			`SELECT 1 FROM accounts WHERE account_number = $1 FOR UPDATE`,
			account.AccountNumber,
		).Scan(&dummy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrAccountNotFound, account.AccountNumber)
			}
			return fmt.Errorf("lock account for update: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE accounts
			 SET balance = $2::numeric, status = $3, allowed_payment_schemes = $4, updated_at = now()
			 WHERE account_number = $1`,
			account.AccountNumber, account.Balance.String(), string(account.Status), int(account.AllowedPaymentSchemes),
		)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})

	return err
}

// CreateAccount создаёт новый счёт.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (account_number, balance, status, allowed_payment_schemes)
		 VALUES ($1, $2::numeric, $3, $4)`,
		account.AccountNumber, account.Balance.String(), string(account.Status), int(account.AllowedPaymentSchemes),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrAccountExists, account.AccountNumber)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		number  string
		balance string
		status  string
		schemes int
	)

	if err := row.Scan(&number, &balance, &status, &schemes); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}

	return &model.Account{
		AccountNumber:         number,
		Balance:               amount,
		Status:                model.AccountStatus(status),
		AllowedPaymentSchemes: model.AllowedPaymentSchemes(schemes),
	}, nil
}
