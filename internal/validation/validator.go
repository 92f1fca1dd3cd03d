// Package validation содержит правила допуска платежей для каждой платёжной системы.
package validation

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/payment-service/internal/model"
)

// ErrUnsupportedScheme возвращается, если для платёжной системы нет правила проверки.
var ErrUnsupportedScheme = errors.New("unsupported payment scheme")

// PaymentValidator решает, можно ли провести платёж со счёта account.
// Отсутствующий счёт (nil) всегда считается недопустимым.
type PaymentValidator interface {
	Validate(account *model.Account, req model.MakePaymentRequest) model.RejectionReason
}

// IsValid сообщает, допускает ли валидатор проведение платежа.
func IsValid(v PaymentValidator, account *model.Account, req model.MakePaymentRequest) bool {
	return v.Validate(account, req) == model.ReasonNone
}

// BacsValidator проверяет только разрешённость Bacs для счёта.
// Баланс и статус счёта для Bacs не проверяются.
type BacsValidator struct{}

// Validate реализует PaymentValidator.
func (BacsValidator) Validate(account *model.Account, _ model.MakePaymentRequest) model.RejectionReason {
	return checkScheme(account, model.PaymentSchemeBacs)
}

// FasterPaymentsValidator дополнительно требует достаточного баланса.
type FasterPaymentsValidator struct{}

// Validate реализует PaymentValidator.
func (FasterPaymentsValidator) Validate(account *model.Account, req model.MakePaymentRequest) model.RejectionReason {
	if reason := checkScheme(account, model.PaymentSchemeFasterPayments); reason != model.ReasonNone {
		return reason
	}
	if account.Balance.LessThan(req.Amount) {
		return model.ReasonInsufficientFunds
	}
	return model.ReasonNone
}

// ChapsValidator дополнительно требует, чтобы счёт был в статусе Live.
type ChapsValidator struct{}

// Validate реализует PaymentValidator.
func (ChapsValidator) Validate(account *model.Account, _ model.MakePaymentRequest) model.RejectionReason {
	if reason := checkScheme(account, model.PaymentSchemeChaps); reason != model.ReasonNone {
		return reason
	}
	if account.Status != model.AccountStatusLive {
		return model.ReasonAccountNotLive
	}
	return model.ReasonNone
}

func checkScheme(account *model.Account, scheme model.PaymentScheme) model.RejectionReason {
	if account == nil {
		return model.ReasonAccountNotFound
	}
	if !account.AllowedPaymentSchemes.Allows(scheme) {
		return model.ReasonSchemeNotAllowed
	}
	return model.ReasonNone
}

// Factory выбирает валидатор по платёжной системе.
type Factory struct{}

// NewFactory создаёт фабрику валидаторов.
func NewFactory() *Factory {
	return &Factory{}
}

// GetValidator возвращает валидатор для платёжной системы scheme.
func (f *Factory) GetValidator(scheme model.PaymentScheme) (PaymentValidator, error) {
	switch scheme {
	case model.PaymentSchemeBacs:
		return BacsValidator{}, nil
	case model.PaymentSchemeFasterPayments:
		return FasterPaymentsValidator{}, nil
	case model.PaymentSchemeChaps:
		return ChapsValidator{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
}
