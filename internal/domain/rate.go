package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate is the stored conversion rate for a currency pair on a
// date. Unique per (from, to, date).
type ExchangeRate struct {
	ID           uuid.UUID
	FromCurrency Currency
	ToCurrency   Currency
	Rate         decimal.Decimal
	Date         time.Time
	CreatedAt    time.Time
}
