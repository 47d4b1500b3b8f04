package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/myfinancial/backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func brazilCard(fxPct, iofPct string) *domain.CreditCard {
	return &domain.CreditCard{
		IssuerCountry: domain.CountryBrazil,
		Currency:      domain.CurrencyBRL,
		FXFeePercent:  dec(fxPct),
		IOFPercent:    dec(iofPct),
	}
}

func portugalCard(fxPct, iofPct string) *domain.CreditCard {
	return &domain.CreditCard{
		IssuerCountry: domain.CountryPortugal,
		Currency:      domain.CurrencyEUR,
		FXFeePercent:  dec(fxPct),
		IOFPercent:    dec(iofPct),
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency domain.Currency
		card     *domain.CreditCard
		wantFX   string
		wantIOF  string
	}{
		{
			name:     "same currency has no fx fee",
			amount:   "150.00",
			currency: domain.CurrencyBRL,
			card:     brazilCard("2.99", "0.38"),
			wantFX:   "0",
			wantIOF:  "0",
		},
		{
			name:     "foreign currency on brazilian card",
			amount:   "150.00",
			currency: domain.CurrencyEUR,
			card:     brazilCard("2.99", "0.38"),
			wantFX:   "4.49",
			wantIOF:  "0.57",
		},
		{
			name:     "foreign currency on portuguese card has no iof",
			amount:   "150.00",
			currency: domain.CurrencyUSD,
			card:     portugalCard("2.99", "0.38"),
			wantFX:   "4.49",
			wantIOF:  "0",
		},
		{
			name:     "home currency on portuguese card",
			amount:   "89.90",
			currency: domain.CurrencyEUR,
			card:     portugalCard("2.50", "0"),
			wantFX:   "0",
			wantIOF:  "0",
		},
		{
			name:     "fee scales linearly with amount",
			amount:   "300.00",
			currency: domain.CurrencyEUR,
			card:     brazilCard("2.99", "0.38"),
			wantFX:   "8.97",
			wantIOF:  "1.14",
		},
		{
			name:     "fee scales linearly with percentage",
			amount:   "150.00",
			currency: domain.CurrencyEUR,
			card:     brazilCard("5.98", "0.76"),
			wantFX:   "8.97",
			wantIOF:  "1.14",
		},
		{
			name:     "zero percentages",
			amount:   "150.00",
			currency: domain.CurrencyEUR,
			card:     brazilCard("0", "0"),
			wantFX:   "0",
			wantIOF:  "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(dec(tc.amount), tc.currency, tc.card)
			assert.True(t, got.FXFee.Equal(dec(tc.wantFX)),
				"fx fee: got %s, want %s", got.FXFee, tc.wantFX)
			assert.True(t, got.IOF.Equal(dec(tc.wantIOF)),
				"iof: got %s, want %s", got.IOF, tc.wantIOF)
		})
	}
}

func TestFeesAreNotCompounded(t *testing.T) {
	// Both fees are percentages of the base amount, not of each other.
	card := brazilCard("10.00", "10.00")
	got := Calculate(dec("100.00"), domain.CurrencyUSD, card)

	assert.True(t, got.FXFee.Equal(dec("10.00")))
	assert.True(t, got.IOF.Equal(dec("10.00")))
	assert.True(t, TotalWithFees(dec("100.00"), got).Equal(dec("120.00")))
}

func TestTotalWithFees(t *testing.T) {
	card := brazilCard("2.99", "0.38")
	amount := dec("150.00")
	f := Calculate(amount, domain.CurrencyEUR, card)

	assert.True(t, TotalWithFees(amount, f).Equal(dec("155.06")),
		"total: got %s", TotalWithFees(amount, f))
	assert.True(t, f.Total().Equal(dec("5.06")))
}
