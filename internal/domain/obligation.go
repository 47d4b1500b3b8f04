package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ObligationKind string

const (
	ObligationFixed    ObligationKind = "fixed"
	ObligationVariable ObligationKind = "variable"
	ObligationInvoice  ObligationKind = "invoice"
)

func (k ObligationKind) IsValid() bool {
	switch k {
	case ObligationFixed, ObligationVariable, ObligationInvoice:
		return true
	}
	return false
}

// ObligationRef is a tagged reference to exactly one obligation source.
// Construct with FixedRef, VariableRef or InvoiceRef; a zero value or a
// hand-built value with mismatched fields fails Validate.
type ObligationRef struct {
	Kind              ObligationKind
	FixedPaymentID    *uuid.UUID
	VariablePaymentID *uuid.UUID
	InvoiceID         *uuid.UUID
}

func FixedRef(id uuid.UUID) ObligationRef {
	return ObligationRef{Kind: ObligationFixed, FixedPaymentID: &id}
}

func VariableRef(id uuid.UUID) ObligationRef {
	return ObligationRef{Kind: ObligationVariable, VariablePaymentID: &id}
}

func InvoiceRef(id uuid.UUID) ObligationRef {
	return ObligationRef{Kind: ObligationInvoice, InvoiceID: &id}
}

func (r ObligationRef) Validate() error {
	set := 0
	if r.FixedPaymentID != nil {
		set++
	}
	if r.VariablePaymentID != nil {
		set++
	}
	if r.InvoiceID != nil {
		set++
	}
	if set != 1 {
		return ErrInvalidObligationRef
	}

	switch r.Kind {
	case ObligationFixed:
		if r.FixedPaymentID == nil {
			return ErrInvalidObligationRef
		}
	case ObligationVariable:
		if r.VariablePaymentID == nil {
			return ErrInvalidObligationRef
		}
	case ObligationInvoice:
		if r.InvoiceID == nil {
			return ErrInvalidObligationRef
		}
	default:
		return ErrInvalidObligationRef
	}
	return nil
}

// ObligationID returns the id of whichever obligation is referenced.
func (r ObligationRef) ObligationID() uuid.UUID {
	switch r.Kind {
	case ObligationFixed:
		if r.FixedPaymentID != nil {
			return *r.FixedPaymentID
		}
	case ObligationVariable:
		if r.VariablePaymentID != nil {
			return *r.VariablePaymentID
		}
	case ObligationInvoice:
		if r.InvoiceID != nil {
			return *r.InvoiceID
		}
	}
	return uuid.Nil
}

type StatusLabel string

const (
	StatusPending StatusLabel = "pending"
	StatusPaid    StatusLabel = "paid"
	StatusOverdue StatusLabel = "overdue"
)

func (s StatusLabel) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// ObligationStatus is one reconciliation ledger entry: whether a given
// obligation has been paid for a given month. The (ref, MonthYear) pair
// is unique.
type ObligationStatus struct {
	ID             uuid.UUID
	Ref            ObligationRef
	MonthYear      time.Time
	DueDate        time.Time
	ExpectedAmount decimal.Decimal
	ActualAmount   *decimal.Decimal
	Currency       Currency
	IsPaid         bool
	PaidDate       *time.Time
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOverdue is derived, never stored: unpaid and past due.
func (s *ObligationStatus) IsOverdue(today time.Time) bool {
	return !s.IsPaid && s.DueDate.Before(today)
}

// Status derives the pending/paid/overdue view of this entry.
func (s *ObligationStatus) Status(today time.Time) StatusLabel {
	if s.IsPaid {
		return StatusPaid
	}
	if s.IsOverdue(today) {
		return StatusOverdue
	}
	return StatusPending
}

// MonthKey truncates a date to the first day of its month, the canonical
// form of MonthYear.
func MonthKey(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}
