package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObligationRefValidate(t *testing.T) {
	id := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		ref     ObligationRef
		wantErr bool
	}{
		{name: "fixed ref", ref: FixedRef(id)},
		{name: "variable ref", ref: VariableRef(id)},
		{name: "invoice ref", ref: InvoiceRef(id)},
		{name: "zero value", ref: ObligationRef{}, wantErr: true},
		{
			name:    "two references set",
			ref:     ObligationRef{Kind: ObligationFixed, FixedPaymentID: &id, InvoiceID: &other},
			wantErr: true,
		},
		{
			name:    "kind mismatch",
			ref:     ObligationRef{Kind: ObligationInvoice, FixedPaymentID: &id},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			ref:     ObligationRef{Kind: "card", InvoiceID: &id},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ref.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidObligationRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, tc.ref.ObligationID())
		})
	}
}

func TestObligationStatusDerivedStatus(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		isPaid  bool
		dueDate time.Time
		want    StatusLabel
	}{
		{name: "unpaid before due date", dueDate: today.AddDate(0, 0, 5), want: StatusPending},
		{name: "unpaid on due date", dueDate: today, want: StatusPending},
		{name: "unpaid past due date", dueDate: today.AddDate(0, 0, -1), want: StatusOverdue},
		{name: "paid past due date", isPaid: true, dueDate: today.AddDate(0, 0, -10), want: StatusPaid},
		{name: "paid before due date", isPaid: true, dueDate: today.AddDate(0, 0, 10), want: StatusPaid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &ObligationStatus{IsPaid: tc.isPaid, DueDate: tc.dueDate}
			assert.Equal(t, tc.want, s.Status(today))
			assert.Equal(t, tc.want == StatusOverdue, s.IsOverdue(today))
		})
	}
}

func TestFixedPaymentIsCurrentlyActive(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, -1, 0)

	p := &FixedPayment{IsActive: true, StartDate: today.AddDate(0, -6, 0)}
	assert.True(t, p.IsCurrentlyActive(today))

	p.EndDate = &end
	assert.False(t, p.IsCurrentlyActive(today))

	p.EndDate = nil
	p.IsActive = false
	assert.False(t, p.IsCurrentlyActive(today))

	p.IsActive = true
	p.StartDate = today.AddDate(0, 1, 0)
	assert.False(t, p.IsCurrentlyActive(today))
}
