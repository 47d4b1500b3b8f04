package ledger_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/repository"
	"github.com/myfinancial/backend/internal/service/ledger"
	"github.com/myfinancial/backend/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	return ledger.NewService(
		repository.NewObligationRepository(db),
		repository.NewFixedPaymentRepository(db),
		repository.NewVariablePaymentRepository(db),
		repository.NewInvoiceRepository(db),
		db,
	)
}

var march2024 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestSchedule_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fp := testutil.SeedTestFixedPayment(t, db, "Rent", "1200.00", domain.CurrencyEUR, march2024.AddDate(0, -3, 0), nil)

	st, err := svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref:            domain.FixedRef(fp.ID),
		MonthYear:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		DueDate:        march2024.AddDate(0, 0, 9),
		ExpectedAmount: decimal.RequireFromString("1200.00"),
		Currency:       domain.CurrencyEUR,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ObligationFixed, st.Ref.Kind)
	assert.Equal(t, fp.ID, st.Ref.ObligationID())
	// month_year is normalized to the first of the month
	assert.Equal(t, march2024, st.MonthYear)
	assert.False(t, st.IsPaid)
	assert.Nil(t, st.ActualAmount)
	assert.Equal(t, 1, testutil.CountObligations(t, db, march2024))
}

func TestSchedule_DuplicatePeriodRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fp := testutil.SeedTestFixedPayment(t, db, "Rent", "1200.00", domain.CurrencyEUR, march2024.AddDate(0, -3, 0), nil)

	req := ledger.ScheduleRequest{
		Ref:            domain.FixedRef(fp.ID),
		MonthYear:      march2024,
		DueDate:        march2024.AddDate(0, 0, 9),
		ExpectedAmount: decimal.RequireFromString("1200.00"),
		Currency:       domain.CurrencyEUR,
	}

	_, err := svc.Schedule(ctx, req)
	require.NoError(t, err)

	_, err = svc.Schedule(ctx, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateObligationPeriod)

	// the same obligation can still be scheduled for another month
	req.MonthYear = march2024.AddDate(0, 1, 0)
	req.DueDate = req.MonthYear.AddDate(0, 0, 9)
	_, err = svc.Schedule(ctx, req)
	assert.NoError(t, err)
}

func TestSchedule_UnknownObligation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref:            domain.FixedRef(uuid.New()),
		MonthYear:      march2024,
		DueDate:        march2024.AddDate(0, 0, 9),
		ExpectedAmount: decimal.RequireFromString("100.00"),
		Currency:       domain.CurrencyBRL,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSchedule_InvalidRef(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	id := uuid.New()
	_, err := svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref:            domain.ObligationRef{Kind: domain.ObligationFixed, FixedPaymentID: &id, InvoiceID: &id},
		MonthYear:      march2024,
		DueDate:        march2024.AddDate(0, 0, 9),
		ExpectedAmount: decimal.RequireFromString("100.00"),
		Currency:       domain.CurrencyBRL,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidObligationRef)
}

func TestMarkPaid_DefaultsToExpectedAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fp := testutil.SeedTestFixedPayment(t, db, "Insurance", "450.00", domain.CurrencyBRL, march2024.AddDate(0, -3, 0), nil)
	st, err := svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref:            domain.FixedRef(fp.ID),
		MonthYear:      march2024,
		DueDate:        march2024.AddDate(0, 0, 9),
		ExpectedAmount: decimal.RequireFromString("450.00"),
		Currency:       domain.CurrencyBRL,
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, st.ID, nil, nil)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.ActualAmount)
	assert.True(t, paid.ActualAmount.Equal(st.ExpectedAmount))
	assert.NotNil(t, paid.PaidDate)

	got, err := svc.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, domain.StatusPaid, got.Status(time.Now().UTC()))
}

func TestMarkPaid_ExplicitAmountAndDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fp := testutil.SeedTestFixedPayment(t, db, "Utilities", "200.00", domain.CurrencyBRL, march2024.AddDate(0, -3, 0), nil)
	st, err := svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref:            domain.FixedRef(fp.ID),
		MonthYear:      march2024,
		DueDate:        march2024.AddDate(0, 0, 9),
		ExpectedAmount: decimal.RequireFromString("200.00"),
		Currency:       domain.CurrencyBRL,
	})
	require.NoError(t, err)

	actual := decimal.RequireFromString("187.42")
	when := march2024.AddDate(0, 0, 7)
	paid, err := svc.MarkPaid(ctx, st.ID, &actual, &when)

	require.NoError(t, err)
	assert.True(t, paid.ActualAmount.Equal(actual))
	assert.True(t, paid.PaidDate.Equal(when))
}

func TestMarkPending_ClearsSettlement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fp := testutil.SeedTestFixedPayment(t, db, "Gym", "90.00", domain.CurrencyBRL, march2024.AddDate(0, -3, 0), nil)
	st, err := svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref:            domain.FixedRef(fp.ID),
		MonthYear:      march2024,
		DueDate:        march2024.AddDate(0, 0, 9),
		ExpectedAmount: decimal.RequireFromString("90.00"),
		Currency:       domain.CurrencyBRL,
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, st.ID, nil, nil)
	require.NoError(t, err)

	pending, err := svc.MarkPending(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, pending.IsPaid)
	assert.Nil(t, pending.ActualAmount)
	assert.Nil(t, pending.PaidDate)

	got, err := svc.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)
	assert.Nil(t, got.ActualAmount)
	assert.Nil(t, got.PaidDate)
}

func TestList_FiltersByStatusWithDerivedOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	start := march2024.AddDate(0, -3, 0)
	overdueFP := testutil.SeedTestFixedPayment(t, db, "Overdue rent", "1000.00", domain.CurrencyBRL, start, nil)
	pendingFP := testutil.SeedTestFixedPayment(t, db, "Future bill", "50.00", domain.CurrencyBRL, start, nil)
	paidFP := testutil.SeedTestFixedPayment(t, db, "Paid bill", "80.00", domain.CurrencyBRL, start, nil)

	// due dates straddle today so derived status differs per entry
	pastDue := time.Now().UTC().AddDate(0, 0, -10)
	futureDue := time.Now().UTC().AddDate(0, 0, 10)
	month := domain.MonthKey(time.Now().UTC())

	schedule := func(fp uuid.UUID, due time.Time, amount string) *domain.ObligationStatus {
		st, err := svc.Schedule(ctx, ledger.ScheduleRequest{
			Ref:            domain.FixedRef(fp),
			MonthYear:      month,
			DueDate:        due,
			ExpectedAmount: decimal.RequireFromString(amount),
			Currency:       domain.CurrencyBRL,
		})
		require.NoError(t, err)
		return st
	}

	schedule(overdueFP.ID, pastDue, "1000.00")
	schedule(pendingFP.ID, futureDue, "50.00")
	paidSt := schedule(paidFP.ID, pastDue, "80.00")
	_, err := svc.MarkPaid(ctx, paidSt.ID, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		status domain.StatusLabel
		want   int
	}{
		{domain.StatusOverdue, 1},
		{domain.StatusPending, 1},
		{domain.StatusPaid, 1},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			statuses, err := svc.List(ctx, ledger.ListFilter{Status: &tc.status})
			require.NoError(t, err)
			require.Len(t, statuses, tc.want)
			assert.Equal(t, tc.status, statuses[0].Status(time.Now().UTC()))
		})
	}

	all, err := svc.List(ctx, ledger.ListFilter{Month: &month})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMonthSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	month := domain.MonthKey(time.Now().UTC())
	start := month.AddDate(0, -3, 0)

	a := testutil.SeedTestFixedPayment(t, db, "A", "100.00", domain.CurrencyBRL, start, nil)
	b := testutil.SeedTestFixedPayment(t, db, "B", "200.00", domain.CurrencyBRL, start, nil)
	c := testutil.SeedTestFixedPayment(t, db, "C", "300.00", domain.CurrencyBRL, start, nil)

	pastDue := time.Now().UTC().AddDate(0, 0, -5)
	futureDue := time.Now().UTC().AddDate(0, 0, 5)

	stA, err := svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref: domain.FixedRef(a.ID), MonthYear: month, DueDate: futureDue,
		ExpectedAmount: decimal.RequireFromString("100.00"), Currency: domain.CurrencyBRL,
	})
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref: domain.FixedRef(b.ID), MonthYear: month, DueDate: futureDue,
		ExpectedAmount: decimal.RequireFromString("200.00"), Currency: domain.CurrencyBRL,
	})
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, ledger.ScheduleRequest{
		Ref: domain.FixedRef(c.ID), MonthYear: month, DueDate: pastDue,
		ExpectedAmount: decimal.RequireFromString("300.00"), Currency: domain.CurrencyBRL,
	})
	require.NoError(t, err)

	actual := decimal.RequireFromString("95.00")
	_, err = svc.MarkPaid(ctx, stA.ID, &actual, nil)
	require.NoError(t, err)

	summary, err := svc.MonthSummary(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Paid)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Overdue)
	assert.True(t, summary.TotalExpected.Equal(decimal.RequireFromString("600.00")))
	assert.True(t, summary.TotalActual.Equal(actual))
}

func TestScheduleMonth_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	month := domain.MonthKey(time.Now().UTC())
	start := month.AddDate(0, -6, 0)

	testutil.SeedTestFixedPayment(t, db, "Rent", "1200.00", domain.CurrencyEUR, start, nil)
	testutil.SeedTestFixedPayment(t, db, "Internet", "99.90", domain.CurrencyBRL, start, nil)

	// ended before this month, must not be scheduled
	ended := month.AddDate(0, -1, -1)
	testutil.SeedTestFixedPayment(t, db, "Old subscription", "30.00", domain.CurrencyBRL, start, &ended)

	created, err := svc.ScheduleMonth(ctx, month, 10)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	expectedDue := month.AddDate(0, 0, 9)
	for _, st := range created {
		assert.True(t, st.DueDate.Equal(expectedDue))
	}

	// second run skips existing entries
	again, err := svc.ScheduleMonth(ctx, month, 10)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 2, testutil.CountObligations(t, db, month))
}
