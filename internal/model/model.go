// Package model содержит доменные сущности платёжного сервиса.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentScheme описывает платёжную систему, через которую проводится списание.
type PaymentScheme int

const (
	PaymentSchemeFasterPayments PaymentScheme = iota
	PaymentSchemeBacs
	PaymentSchemeChaps
)

var paymentSchemeNames = map[PaymentScheme]string{
	PaymentSchemeFasterPayments: "FasterPayments",
	PaymentSchemeBacs:           "Bacs",
	PaymentSchemeChaps:          "Chaps",
}

func (s PaymentScheme) String() string {
	if name, ok := paymentSchemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PaymentScheme(%d)", int(s))
}

// ParsePaymentScheme разбирает текстовое имя платёжной системы без учёта регистра.
func ParsePaymentScheme(name string) (PaymentScheme, error) {
	for s, n := range paymentSchemeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown payment scheme %q", name)
}

// MarshalText позволяет использовать PaymentScheme в JSON по имени.
func (s PaymentScheme) MarshalText() ([]byte, error) {
	name, ok := paymentSchemeNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown payment scheme %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText разбирает имя платёжной системы из JSON.
func (s *PaymentScheme) UnmarshalText(text []byte) error {
	v, err := ParsePaymentScheme(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AllowedPaymentSchemes — набор флагов платёжных систем, разрешённых для счёта.
type AllowedPaymentSchemes int

const (
	AllowedFasterPayments AllowedPaymentSchemes = 1 << iota
	AllowedBacs
	AllowedChaps
)

// Has сообщает, содержит ли набор все флаги flag.
func (a AllowedPaymentSchemes) Has(flag AllowedPaymentSchemes) bool {
	return a&flag == flag
}

// AllowedFor возвращает флаг, соответствующий платёжной системе s, или 0 для неизвестной системы.
func AllowedFor(s PaymentScheme) AllowedPaymentSchemes {
	switch s {
	case PaymentSchemeFasterPayments:
		return AllowedFasterPayments
	case PaymentSchemeBacs:
		return AllowedBacs
	case PaymentSchemeChaps:
		return AllowedChaps
	default:
		return 0
	}
}

// Allows сообщает, разрешена ли для счёта указанная платёжная система.
func (a AllowedPaymentSchemes) Allows(s PaymentScheme) bool {
	flag := AllowedFor(s)
	return flag != 0 && a.Has(flag)
}

// AccountStatus описывает состояние жизненного цикла счёта.
type AccountStatus string

const (
	AccountStatusLive                AccountStatus = "LIVE"
	AccountStatusDisabled            AccountStatus = "DISABLED"
	AccountStatusInboundPaymentsOnly AccountStatus = "INBOUND_PAYMENTS_ONLY"
)

// Valid сообщает, относится ли статус к известному набору.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusLive, AccountStatusDisabled, AccountStatusInboundPaymentsOnly:
		return true
	}
	return false
}

// Account описывает счёт плательщика.
type Account struct {
	AccountNumber         string                `json:"accountNumber"`
	Balance               decimal.Decimal       `json:"balance"`
	Status                AccountStatus         `json:"status"`
	AllowedPaymentSchemes AllowedPaymentSchemes `json:"allowedPaymentSchemes"`
}

// MakePaymentRequest описывает запрос на списание средств со счёта плательщика.
type MakePaymentRequest struct {
	CreditorAccountNumber string
	DebtorAccountNumber   string
	Amount                decimal.Decimal
	PaymentDate           time.Time
	PaymentScheme         PaymentScheme
}

// RejectionReason объясняет, почему платёж был отклонён бизнес-правилами.
type RejectionReason string

const (
	ReasonNone              RejectionReason = ""
	ReasonAccountNotFound   RejectionReason = "ACCOUNT_NOT_FOUND"
	ReasonSchemeNotAllowed  RejectionReason = "SCHEME_NOT_ALLOWED"
	ReasonInsufficientFunds RejectionReason = "INSUFFICIENT_FUNDS"
	ReasonAccountNotLive    RejectionReason = "ACCOUNT_NOT_LIVE"
)

// MakePaymentResult содержит итог проведения платежа.
type MakePaymentResult struct {
	Success bool            `json:"success"`
	Reason  RejectionReason `json:"reason,omitempty"`
}
