package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentScheme(t *testing.T) {
	tests := []struct {
		in      string
		want    PaymentScheme
		wantErr bool
	}{
		{in: "Bacs", want: PaymentSchemeBacs},
		{in: "fasterpayments", want: PaymentSchemeFasterPayments},
		{in: " CHAPS ", want: PaymentSchemeChaps},
		{in: "Swift", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePaymentScheme(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowedPaymentSchemes_Allows(t *testing.T) {
	set := AllowedBacs | AllowedChaps

	assert.True(t, set.Allows(PaymentSchemeBacs))
	assert.True(t, set.Allows(PaymentSchemeChaps))
	assert.False(t, set.Allows(PaymentSchemeFasterPayments))
	assert.False(t, set.Allows(PaymentScheme(99)))
	assert.True(t, set.Has(AllowedBacs|AllowedChaps))
	assert.False(t, set.Has(AllowedBacs|AllowedFasterPayments))
}

func TestAccountJSONKeepsDecimalPrecision(t *testing.T) {
	acc := Account{
		AccountNumber:         "123",
		Balance:               decimal.RequireFromString("100.10"),
		Status:                AccountStatusLive,
		AllowedPaymentSchemes: AllowedFasterPayments,
	}

	data, err := json.Marshal(acc)
	require.NoError(t, err)

	var got Account
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, acc.Balance.Equal(got.Balance), "balance = %s, want %s", got.Balance, acc.Balance)
	assert.Equal(t, acc.Status, got.Status)
	assert.Equal(t, acc.AllowedPaymentSchemes, got.AllowedPaymentSchemes)
}

func TestPaymentSchemeText(t *testing.T) {
	data, err := json.Marshal(struct {
		Scheme PaymentScheme `json:"scheme"`
	}{Scheme: PaymentSchemeChaps})
	require.NoError(t, err)
	assert.JSONEq(t, `{"scheme":"Chaps"}`, string(data))

	_, err = PaymentScheme(7).MarshalText()
	assert.Error(t, err)
}
