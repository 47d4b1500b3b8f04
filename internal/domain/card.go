package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyBRL Currency = "BRL"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyBRL, CurrencyEUR, CurrencyUSD:
		return true
	}
	return false
}

type Country string

const (
	CountryBrazil   Country = "Brazil"
	CountryPortugal Country = "Portugal"
)

func (c Country) IsValid() bool {
	switch c {
	case CountryBrazil, CountryPortugal:
		return true
	}
	return false
}

// HomeCurrency is the currency a card issued in this country settles in
// domestically. IOF-style taxes apply only to transactions outside it.
func (c Country) HomeCurrency() Currency {
	switch c {
	case CountryBrazil:
		return CurrencyBRL
	case CountryPortugal:
		return CurrencyEUR
	default:
		return ""
	}
}

// ImposesForeignTxTax reports whether the issuer country charges a tax
// (IOF) on transactions outside its home currency.
func (c Country) ImposesForeignTxTax() bool {
	return c == CountryBrazil
}

type CreditCard struct {
	ID             uuid.UUID
	IssuerCountry  Country
	Currency       Currency
	FXFeePercent   decimal.Decimal
	IOFPercent     decimal.Decimal
	CardholderName string
	FinalDigits    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
