// Package fees computes the card fees charged on a transaction: the
// issuer's FX fee and the IOF-style tax some countries levy on foreign
// currency spend.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/myfinancial/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Fees holds the two fee components separately. They are computed
// independently off the base amount and never compounded on each other.
type Fees struct {
	FXFee decimal.Decimal
	IOF   decimal.Decimal
}

func (f Fees) Total() decimal.Decimal {
	return f.FXFee.Add(f.IOF)
}

// Calculate returns the fees for charging amount in txnCurrency to card.
//
// The FX fee applies when the transaction currency differs from the
// card's currency. The IOF tax applies only for issuer countries that
// tax foreign transactions (Brazil), and only when the transaction is
// outside the issuer's home currency. Both are rounded to cents,
// half away from zero.
func Calculate(amount decimal.Decimal, txnCurrency domain.Currency, card *domain.CreditCard) Fees {
	var f Fees

	if txnCurrency != card.Currency {
		f.FXFee = amount.Mul(card.FXFeePercent).Div(hundred).Round(2)
	} else {
		f.FXFee = decimal.Zero
	}

	if card.IssuerCountry.ImposesForeignTxTax() && txnCurrency != card.IssuerCountry.HomeCurrency() {
		f.IOF = amount.Mul(card.IOFPercent).Div(hundred).Round(2)
	} else {
		f.IOF = decimal.Zero
	}

	return f
}

// TotalWithFees is the amount the cardholder actually owes.
func TotalWithFees(amount decimal.Decimal, f Fees) decimal.Decimal {
	return amount.Add(f.FXFee).Add(f.IOF)
}
