package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) IsValid() bool {
	return f == FrequencyMonthly || f == FrequencyYearly
}

type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryShopping      Category = "shopping"
	CategoryBills         Category = "bills"
	CategoryOther         Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryEntertainment, CategoryHealth,
		CategoryEducation, CategoryShopping, CategoryBills, CategoryOther:
		return true
	}
	return false
}

// FixedPayment is a recurring obligation (rent, subscriptions).
type FixedPayment struct {
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    Currency
	Country     Country
	Frequency   Frequency
	StartDate   time.Time
	EndDate     *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCurrentlyActive reports whether the payment recurs on the given day:
// the active flag is set and today falls inside [StartDate, EndDate].
func (p *FixedPayment) IsCurrentlyActive(today time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.EndDate != nil && today.After(*p.EndDate) {
		return false
	}
	return !today.Before(p.StartDate)
}

// VariablePayment is a one-off expense, optionally charged to a credit
// card. Fee amounts are computed once at creation and stored for audit.
type VariablePayment struct {
	ID           uuid.UUID
	Date         time.Time
	Description  string
	Amount       decimal.Decimal
	Currency     Currency
	Country      Country
	Category     Category
	CreditCardID *uuid.UUID
	FXFeeAmount  decimal.Decimal
	IOFAmount    decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *VariablePayment) TotalWithFees() decimal.Decimal {
	return p.Amount.Add(p.FXFeeAmount).Add(p.IOFAmount)
}
