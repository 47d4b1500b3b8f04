package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile holds a user's financial settings: reporting currency and
// declared monthly income per earning currency.
type Profile struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Name             string
	BaseCurrency     Currency
	MonthlyIncomeBRL decimal.Decimal
	MonthlyIncomeEUR decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Incomes returns the declared monthly incomes keyed by currency,
// omitting zero amounts.
func (p *Profile) Incomes() map[Currency]decimal.Decimal {
	out := make(map[Currency]decimal.Decimal, 2)
	if p.MonthlyIncomeBRL.IsPositive() {
		out[CurrencyBRL] = p.MonthlyIncomeBRL
	}
	if p.MonthlyIncomeEUR.IsPositive() {
		out[CurrencyEUR] = p.MonthlyIncomeEUR
	}
	return out
}
