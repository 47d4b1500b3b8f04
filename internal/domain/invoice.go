package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreditCardInvoice is one billing period of a card. Invoices for a card
// are contiguous: EndDate + 1 day == the successor's StartDate. At most
// one invoice per card is open at any time; the close transition enforces
// this by creating the successor atomically.
type CreditCardInvoice struct {
	ID        uuid.UUID
	CardID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *CreditCardInvoice) BillingPeriodDays() int {
	return int(i.EndDate.Sub(i.StartDate).Hours()/24) + 1
}
