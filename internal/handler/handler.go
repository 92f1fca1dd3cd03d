// Package handler содержит HTTP-обработчики API платёжного сервиса.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/payment-service/internal/metrics"
	"github.com/mmeshcher/payment-service/internal/model"
	"github.com/mmeshcher/payment-service/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	MakePayment(ctx context.Context, req model.MakePaymentRequest) (model.MakePaymentResult, error)
	GetAccount(ctx context.Context, accountNumber string) (*model.Account, error)
}

// Handler реализует HTTP-обработчики API платёжного сервиса.
type Handler struct {
	service  Service
	logger   *zap.Logger
	metrics  *metrics.Metrics
	throttle Throttle
}

// Option настраивает Handler.
type Option func(*Handler)

// WithThrottle задаёт ограничение одновременных платежей. Limit < 1 оставляет DefaultThrottle.
func WithThrottle(t Throttle) Option {
	return func(h *Handler) {
		if t.Limit < 1 {
			return
		}
		if t.Backlog < 0 {
			t.Backlog = 0
		}
		h.throttle = t
	}
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов. m может быть nil.
func NewHandler(s Service, logger *zap.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		service:  s,
		logger:   logger,
		metrics:  m,
		throttle: DefaultThrottle,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PaymentRequest — тело запроса POST /api/payments.
type PaymentRequest struct {
	CreditorAccountNumber string          `json:"creditorAccountNumber"`
	DebtorAccountNumber   string          `json:"debtorAccountNumber"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentDate           time.Time       `json:"paymentDate"`
	PaymentScheme         string          `json:"paymentScheme"`
}

// MakePayment проводит платёж. Отказ по бизнес-правилам возвращается со статусом 200 и success=false.
func (h *Handler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.DebtorAccountNumber == "" || !validAmount(req.Amount) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	scheme, err := model.ParsePaymentScheme(req.PaymentScheme)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := h.service.MakePayment(r.Context(), model.MakePaymentRequest{
		CreditorAccountNumber: req.CreditorAccountNumber,
		DebtorAccountNumber:   req.DebtorAccountNumber,
		Amount:                req.Amount,
		PaymentDate:           req.PaymentDate,
		PaymentScheme:         scheme,
	})
	if err != nil {
		h.logger.Error("make payment error",
			zap.Error(err),
			zap.String("debtor", req.DebtorAccountNumber),
			zap.String("scheme", scheme.String()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !res.Success {
		h.logger.Info("payment rejected",
			zap.String("debtor", req.DebtorAccountNumber),
			zap.String("scheme", scheme.String()),
			zap.String("reason", string(res.Reason)),
		)
	}

	writeJSON(w, res)
}

// amountScale — число знаков после запятой, допустимое в сумме платежа.
const amountScale = 2

// validAmount принимает только положительные суммы без долей меньше копейки.
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(amountScale))
}

type accountResponse struct {
	AccountNumber         string   `json:"accountNumber"`
	Balance               string   `json:"balance"`
	Status                string   `json:"status"`
	AllowedPaymentSchemes []string `json:"allowedPaymentSchemes"`
}

// GetAccount возвращает состояние счёта.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	acc, err := h.service.GetAccount(r.Context(), number)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get account error", zap.Error(err), zap.String("account", number))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	schemes := make([]string, 0, 3)
	for _, s := range []model.PaymentScheme{
		model.PaymentSchemeFasterPayments,
		model.PaymentSchemeBacs,
		model.PaymentSchemeChaps,
	} {
		if acc.AllowedPaymentSchemes.Allows(s) {
			schemes = append(schemes, s.String())
		}
	}

	writeJSON(w, accountResponse{
		AccountNumber:         acc.AccountNumber,
		Balance:               acc.Balance.StringFixed(2),
		Status:                string(acc.Status),
		AllowedPaymentSchemes: schemes,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
