// Package client предоставляет HTTP-клиент API платёжного сервиса.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/payment-service/internal/model"
)

// ErrNotFound возвращается, если счёт не найден.
var ErrNotFound = errors.New("not found")

// Client инкапсулирует HTTP-взаимодействие с платёжным сервисом.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Account описывает счёт в ответе GET /api/accounts/{number}.
type Account struct {
	AccountNumber         string   `json:"accountNumber"`
	Balance               string   `json:"balance"`
	Status                string   `json:"status"`
	AllowedPaymentSchemes []string `json:"allowedPaymentSchemes"`
}

// paymentRequest — тело POST /api/payments.
type paymentRequest struct {
	CreditorAccountNumber string          `json:"creditorAccountNumber"`
	DebtorAccountNumber   string          `json:"debtorAccountNumber"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentDate           time.Time       `json:"paymentDate"`
	PaymentScheme         string          `json:"paymentScheme"`
}

// NewClient создаёт HTTP-клиент для обращения к платёжному сервису по указанному адресу.
func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// MakePayment отправляет платёж и возвращает результат, код ответа и задержку из Retry-After (для 429).
func (c *Client) MakePayment(ctx context.Context, req model.MakePaymentRequest) (*model.MakePaymentResult, int, time.Duration, error) {
	body, err := json.Marshal(paymentRequest{
		CreditorAccountNumber: req.CreditorAccountNumber,
		DebtorAccountNumber:   req.DebtorAccountNumber,
		Amount:                req.Amount,
		PaymentDate:           req.PaymentDate,
		PaymentScheme:         req.PaymentScheme.String(),
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/payments", bytes.NewReader(body))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, resp.StatusCode, retryAfter, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result model.MakePaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, resp.StatusCode, 0, fmt.Errorf("decode response: %w", err)
	}

	return &result, resp.StatusCode, 0, nil
}

// GetAccount запрашивает состояние счёта.
func (c *Client) GetAccount(ctx context.Context, accountNumber string) (*Account, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/accounts/"+url.PathEscape(accountNumber), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
	default:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var acc Account
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &acc, nil
}
