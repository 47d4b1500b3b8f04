package payments_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/repository"
	"github.com/myfinancial/backend/internal/service/payments"
	"github.com/myfinancial/backend/internal/testutil"
)

func setupPaymentService(t *testing.T, db *sql.DB) *payments.Service {
	t.Helper()
	return payments.NewService(
		repository.NewCardRepository(db),
		repository.NewFixedPaymentRepository(db),
		repository.NewVariablePaymentRepository(db),
	)
}

func TestCreateVariablePayment_CapturesCardFees(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")

	p, err := svc.CreateVariablePayment(ctx, payments.CreateVariablePaymentRequest{
		Date:         time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Description:  "Flight to Porto",
		Amount:       decimal.RequireFromString("150.00"),
		Currency:     domain.CurrencyEUR,
		Country:      domain.CountryPortugal,
		Category:     domain.CategoryTransport,
		CreditCardID: &card.ID,
	})

	require.NoError(t, err)
	assert.True(t, p.FXFeeAmount.Equal(decimal.RequireFromString("4.49")), "fx fee = %s", p.FXFeeAmount)
	assert.True(t, p.IOFAmount.Equal(decimal.RequireFromString("0.57")), "iof = %s", p.IOFAmount)
	assert.True(t, p.TotalWithFees().Equal(decimal.RequireFromString("155.06")))

	// fees are persisted, not just returned
	var fx, iof decimal.Decimal
	err = db.QueryRow(`SELECT fx_fee_amount, iof_amount FROM variable_payments WHERE id = $1`, p.ID).Scan(&fx, &iof)
	require.NoError(t, err)
	assert.True(t, fx.Equal(p.FXFeeAmount))
	assert.True(t, iof.Equal(p.IOFAmount))
}

func TestCreateVariablePayment_NoFeesWithoutCard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	p, err := svc.CreateVariablePayment(ctx, payments.CreateVariablePaymentRequest{
		Date:        time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "Pharmacy",
		Amount:      decimal.RequireFromString("64.30"),
		Currency:    domain.CurrencyBRL,
		Country:     domain.CountryBrazil,
		Category:    domain.CategoryHealth,
	})

	require.NoError(t, err)
	assert.True(t, p.FXFeeAmount.IsZero())
	assert.True(t, p.IOFAmount.IsZero())
}

func TestCreateVariablePayment_InactiveCardRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	card := testutil.SeedTestCard(t, db, domain.CountryBrazil, domain.CurrencyBRL, "2.99", "0.38")
	_, err := db.Exec(`UPDATE credit_cards SET is_active = FALSE WHERE id = $1`, card.ID)
	require.NoError(t, err)

	_, err = svc.CreateVariablePayment(ctx, payments.CreateVariablePaymentRequest{
		Date:         time.Now().UTC(),
		Description:  "Groceries",
		Amount:       decimal.RequireFromString("100.00"),
		Currency:     domain.CurrencyBRL,
		Country:      domain.CountryBrazil,
		Category:     domain.CategoryFood,
		CreditCardID: &card.ID,
	})
	assert.ErrorIs(t, err, domain.ErrCardInactive)
}

func TestCreateFixedPayment_DefaultsToMonthly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	p, err := svc.CreateFixedPayment(ctx, payments.CreateFixedPaymentRequest{
		Description: "Rent",
		Amount:      decimal.RequireFromString("1200.00"),
		Currency:    domain.CurrencyEUR,
		Country:     domain.CountryPortugal,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyMonthly, p.Frequency)
	assert.True(t, p.IsActive)
}

func TestCreateCard_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     payments.CreateCardRequest
		wantErr error
	}{
		{
			name: "unknown country",
			req: payments.CreateCardRequest{
				IssuerCountry: "Spain", Currency: domain.CurrencyEUR,
				CardholderName: "X", FinalDigits: "1111",
			},
			wantErr: domain.ErrInvalidCountry,
		},
		{
			name: "unknown currency",
			req: payments.CreateCardRequest{
				IssuerCountry: domain.CountryPortugal, Currency: "GBP",
				CardholderName: "X", FinalDigits: "1111",
			},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name: "negative fee",
			req: payments.CreateCardRequest{
				IssuerCountry: domain.CountryBrazil, Currency: domain.CurrencyBRL,
				FXFeePercent:   decimal.RequireFromString("-1"),
				CardholderName: "X", FinalDigits: "1111",
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCard(ctx, tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
