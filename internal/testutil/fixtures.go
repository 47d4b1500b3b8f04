package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/myfinancial/backend/internal/domain"
)

func SeedTestUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestProfile(t *testing.T, db *sql.DB, userID uuid.UUID, base domain.Currency, incomeBRL, incomeEUR string) *domain.Profile {
	t.Helper()

	p := &domain.Profile{
		ID:               uuid.New(),
		UserID:           userID,
		Name:             "Test Profile",
		BaseCurrency:     base,
		MonthlyIncomeBRL: decimal.RequireFromString(incomeBRL),
		MonthlyIncomeEUR: decimal.RequireFromString(incomeEUR),
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO profiles (id, user_id, name, base_currency, monthly_income_brl, monthly_income_eur, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.Name, p.BaseCurrency, p.MonthlyIncomeBRL, p.MonthlyIncomeEUR, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test profile: %v", err)
	}
	return p
}

func SeedTestCard(t *testing.T, db *sql.DB, country domain.Country, currency domain.Currency, fxFee, iof string) *domain.CreditCard {
	t.Helper()

	c := &domain.CreditCard{
		ID:             uuid.New(),
		IssuerCountry:  country,
		Currency:       currency,
		FXFeePercent:   decimal.RequireFromString(fxFee),
		IOFPercent:     decimal.RequireFromString(iof),
		CardholderName: "Test Holder",
		FinalDigits:    "4242",
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO credit_cards (id, issuer_country, currency, fx_fee_percent, iof_percent, cardholder_name, final_digits, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.IssuerCountry, c.Currency, c.FXFeePercent, c.IOFPercent, c.CardholderName, c.FinalDigits, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test card: %v", err)
	}
	return c
}

func SeedTestInvoice(t *testing.T, db *sql.DB, cardID uuid.UUID, start, end time.Time, closed bool) *domain.CreditCardInvoice {
	t.Helper()

	inv := &domain.CreditCardInvoice{
		ID:        uuid.New(),
		CardID:    cardID,
		StartDate: start,
		EndDate:   end,
		IsClosed:  closed,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO credit_card_invoices (id, card_id, start_date, end_date, is_closed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.CardID, inv.StartDate, inv.EndDate, inv.IsClosed, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test invoice: %v", err)
	}
	return inv
}

func SeedTestFixedPayment(t *testing.T, db *sql.DB, description, amount string, currency domain.Currency, start time.Time, end *time.Time) *domain.FixedPayment {
	t.Helper()

	p := &domain.FixedPayment{
		ID:          uuid.New(),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Currency:    currency,
		Country:     domain.CountryBrazil,
		Frequency:   domain.FrequencyMonthly,
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO fixed_payments (id, description, amount, currency, country, frequency, start_date, end_date, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Description, p.Amount, p.Currency, p.Country, p.Frequency, p.StartDate, p.EndDate, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test fixed payment: %v", err)
	}
	return p
}

func SeedTestVariablePayment(t *testing.T, db *sql.DB, date time.Time, amount string, currency domain.Currency, cardID *uuid.UUID) *domain.VariablePayment {
	t.Helper()

	p := &domain.VariablePayment{
		ID:           uuid.New(),
		Date:         date,
		Description:  "Test purchase",
		Amount:       decimal.RequireFromString(amount),
		Currency:     currency,
		Country:      domain.CountryBrazil,
		Category:     domain.CategoryShopping,
		CreditCardID: cardID,
		FXFeeAmount:  decimal.Zero,
		IOFAmount:    decimal.Zero,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO variable_payments (id, date, description, amount, currency, country, category, credit_card_id, fx_fee_amount, iof_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Date, p.Description, p.Amount, p.Currency, p.Country, p.Category, p.CreditCardID, p.FXFeeAmount, p.IOFAmount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test variable payment: %v", err)
	}
	return p
}

func SeedTestRate(t *testing.T, db *sql.DB, from, to domain.Currency, rate string, date time.Time) *domain.ExchangeRate {
	t.Helper()

	r := &domain.ExchangeRate{
		ID:           uuid.New(),
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         decimal.RequireFromString(rate),
		Date:         date,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO exchange_rates (id, from_currency, to_currency, rate, date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.FromCurrency, r.ToCurrency, r.Rate, r.Date, r.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test rate %s/%s: %v", from, to, err)
	}
	return r
}

func CountOpenInvoices(t *testing.T, db *sql.DB, cardID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM credit_card_invoices WHERE card_id = $1 AND NOT is_closed`,
		cardID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count open invoices for card %s: %v", cardID, err)
	}
	return count
}

func CountObligations(t *testing.T, db *sql.DB, month time.Time) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM obligation_statuses WHERE month_year = $1`,
		month,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count obligations for month %s: %v", month.Format("2006-01"), err)
	}
	return count
}
