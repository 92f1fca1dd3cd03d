// Package main — консольный клиент платёжного сервиса.
//
//	paymentctl pay -debtor 123 -amount 10.00 -scheme Bacs
//	paymentctl account -number 123
//	paymentctl seed -d postgres://localhost/payments -number 123 -balance 100 -schemes Bacs,Chaps
//
// seed пишет в Postgres или Redis. Хранилище memory живёт внутри процесса сервера
// и заполняется при старте из файла -seed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/payment-service/internal/client"
	"github.com/mmeshcher/payment-service/internal/model"
	"github.com/mmeshcher/payment-service/internal/repository"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: paymentctl <pay|account|seed> [flags]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "pay":
		err = runPay(ctx, os.Args[2:])
	case "account":
		err = runAccount(ctx, os.Args[2:])
	case "seed":
		err = runSeed(ctx, os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}

	if err != nil {
		sugar.Fatalw("command failed", "command", os.Args[1], "error", err)
	}
}

func runPay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	addr := fs.String("a", "localhost:8080", "payment service address")
	debtor := fs.String("debtor", "", "debtor account number")
	creditor := fs.String("creditor", "", "creditor account number")
	amount := fs.String("amount", "", "amount to debit")
	scheme := fs.String("scheme", "", "payment scheme: Bacs, FasterPayments or Chaps")
	if err := fs.Parse(args); err != nil {
		return err
	}

	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	ps, err := model.ParsePaymentScheme(*scheme)
	if err != nil {
		return err
	}

	c := client.NewClient(*addr)

	for {
		res, code, retryAfter, err := c.MakePayment(ctx, model.MakePaymentRequest{
			CreditorAccountNumber: *creditor,
			DebtorAccountNumber:   *debtor,
			Amount:                value,
			PaymentDate:           time.Now().UTC(),
			PaymentScheme:         ps,
		})
		if err != nil {
			return err
		}

		if res == nil {
			// 429: ждём и повторяем
			timer := time.NewTimer(max(retryAfter, time.Second))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("payment not sent (status %d): %w", code, ctx.Err())
			case <-timer.C:
			}
			continue
		}

		if res.Success {
			fmt.Println("success")
		} else {
			fmt.Printf("rejected: %s\n", res.Reason)
		}
		return nil
	}
}

func runAccount(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("account", flag.ExitOnError)
	addr := fs.String("a", "localhost:8080", "payment service address")
	number := fs.String("number", "", "account number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	acc, err := client.NewClient(*addr).GetAccount(ctx, *number)
	if err != nil {
		return err
	}

	fmt.Printf("%s\tbalance=%s\tstatus=%s\tschemes=%s\n",
		acc.AccountNumber, acc.Balance, acc.Status, strings.Join(acc.AllowedPaymentSchemes, ","))
	return nil
}

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	storeType := fs.String("store", string(repository.StoreTypeDefault), "account data store type: default or backup")
	dsn := fs.String("d", "", "database URI")
	redisAddr := fs.String("r", "", "redis address")
	number := fs.String("number", "", "account number")
	balance := fs.String("balance", "0", "opening balance")
	status := fs.String("status", string(model.AccountStatusLive), "account status")
	schemes := fs.String("schemes", "", "comma separated allowed payment schemes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := checkSeedStore(*storeType); err != nil {
		return err
	}

	account, err := buildAccount(*number, *balance, *status, *schemes)
	if err != nil {
		return err
	}

	store, err := repository.NewAccountStore(ctx, repository.StoreConfig{
		Type:         *storeType,
		DatabaseURI:  *dsn,
		RedisAddress: *redisAddr,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateAccount(ctx, account); err != nil {
		return err
	}

	fmt.Printf("account %s created\n", account.AccountNumber)
	return nil
}

// checkSeedStore отклоняет хранилища, которые нельзя заполнить из отдельного процесса.
func checkSeedStore(storeType string) error {
	t, err := repository.ParseStoreType(storeType)
	if err != nil {
		return err
	}
	if t == repository.StoreTypeMemory {
		return errors.New("memory store lives inside the server process: start it with -seed <file> instead")
	}
	return nil
}

func buildAccount(number, balance, status, schemes string) (*model.Account, error) {
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}

	acc, err := repository.SeedAccount{
		AccountNumber:         number,
		Balance:               amount,
		Status:                status,
		AllowedPaymentSchemes: strings.Split(schemes, ","),
	}.Account()
	if err != nil {
		return nil, err
	}

	return &acc, nil
}
