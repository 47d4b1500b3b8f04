package invoice_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/repository"
	"github.com/myfinancial/backend/internal/service/invoice"
	"github.com/myfinancial/backend/internal/testutil"
)

func setupInvoiceService(t *testing.T, db *sql.DB) *invoice.Service {
	t.Helper()
	return invoice.NewService(
		repository.NewInvoiceRepository(db),
		repository.NewCardRepository(db),
		repository.NewObligationRepository(db),
		db,
	)
}

func TestCreateInitial_CoversCalendarMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")

	anchor := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	inv, err := svc.CreateInitial(ctx, card.ID, anchor)

	require.NoError(t, err)
	assert.Equal(t, card.ID, inv.CardID)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), inv.StartDate)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), inv.EndDate)
	assert.False(t, inv.IsClosed)
	assert.Equal(t, 29, inv.BillingPeriodDays())
}

func TestCreateInitial_RejectsSecondOpenInvoice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")

	_, err := svc.CreateInitial(ctx, card.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.CreateInitial(ctx, card.ID, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrOpenInvoiceExists)
	assert.Equal(t, 1, testutil.CountOpenInvoices(t, db, card.ID))
}

func TestCreateInitial_RejectsInactiveCard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")
	_, err := db.Exec(`UPDATE credit_cards SET is_active = FALSE WHERE id = $1`, card.ID)
	require.NoError(t, err)

	_, err = svc.CreateInitial(ctx, card.ID, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrCardInactive)
}

func TestClose_RollsOverToNextPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryPortugal, domain.CurrencyEUR, "1.75", "0")
	inv := testutil.SeedTestInvoice(t, db, card.ID,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		false,
	)

	closed, successor, err := svc.Close(ctx, inv.ID)

	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	assert.Equal(t, inv.ID, closed.ID)

	// January 2024 rolls into leap February
	assert.Equal(t, card.ID, successor.CardID)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), successor.StartDate)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), successor.EndDate)
	assert.False(t, successor.IsClosed)

	assert.Equal(t, 1, testutil.CountOpenInvoices(t, db, card.ID))
}

func TestClose_AlreadyClosed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")
	inv := testutil.SeedTestInvoice(t, db, card.ID,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		true,
	)

	_, _, err := svc.Close(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvoiceClosed)
}

func TestClose_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	_, _, err := svc.Close(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClose_ConcurrentClosesExactlyOneSucceeds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")
	inv := testutil.SeedTestInvoice(t, db, card.ID,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		false,
	)

	const workers = 5
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = svc.Close(ctx, inv.ID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInvoiceClosed)
		}
	}
	assert.Equal(t, 1, succeeded)

	// exactly one successor was created, so one invoice remains open
	assert.Equal(t, 1, testutil.CountOpenInvoices(t, db, card.ID))
}

func TestTotals_SumsChargedObligations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")
	inv := testutil.SeedTestInvoice(t, db, card.ID,
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		false,
	)

	month := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	insertObligation(t, db, domain.InvoiceRef(inv.ID), month, "150.00")

	totals, err := svc.Totals(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, totals.InvoiceID)
	assert.Equal(t, "150", totals.TotalAmount.String())
	assert.Equal(t, 1, totals.PurchasesCount)
	assert.Equal(t, 30, totals.BillingDays)
}

func TestTotals_EmptyInvoice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInvoiceService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")
	inv := testutil.SeedTestInvoice(t, db, card.ID,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		false,
	)

	totals, err := svc.Totals(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, totals.TotalAmount.IsZero())
	assert.Equal(t, 0, totals.PurchasesCount)
}

func insertObligation(t *testing.T, db *sql.DB, ref domain.ObligationRef, month time.Time, amount string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO obligation_statuses (id, kind, fixed_payment_id, variable_payment_id, invoice_id, month_year, due_date, expected_amount, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'BRL')`,
		uuid.New(), ref.Kind, ref.FixedPaymentID, ref.VariablePaymentID, ref.InvoiceID,
		month, month.AddDate(0, 0, 9), amount,
	)
	require.NoError(t, err)
}
