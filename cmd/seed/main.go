// Command seed loads a demo dataset: one user with a profile, two
// credit cards with open invoices, recurring and one-off payments, a
// scheduled ledger for the current month, and exchange rates covering
// the last 90 days.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/myfinancial/backend/internal/config"
	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/logging"
	"github.com/myfinancial/backend/internal/repository"
	"github.com/myfinancial/backend/internal/service/invoice"
	"github.com/myfinancial/backend/internal/service/ledger"
	"github.com/myfinancial/backend/internal/service/payments"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("myfinancial-seed", cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     5,
		MaxIdleConns:     2,
		ConnMaxLifetimeS: 300,
		ConnMaxIdleTimeS: 60,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := run(ctx, db, cfg); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed completed")
}

func run(ctx context.Context, db *sql.DB, cfg *config.Config) error {
	cards := repository.NewCardRepository(db)
	invoices := repository.NewInvoiceRepository(db)
	fixed := repository.NewFixedPaymentRepository(db)
	variable := repository.NewVariablePaymentRepository(db)
	obligations := repository.NewObligationRepository(db)
	rates := repository.NewRateRepository(db)

	paymentSvc := payments.NewService(cards, fixed, variable)
	invoiceSvc := invoice.NewService(invoices, cards, obligations, db)
	ledgerSvc := ledger.NewService(obligations, fixed, variable, invoices, db)

	userID, err := seedUser(ctx, db)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if err := seedProfile(ctx, db, userID); err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}
	if err := seedRates(ctx, rates); err != nil {
		return fmt.Errorf("seed rates: %w", err)
	}

	brCard, err := paymentSvc.CreateCard(ctx, payments.CreateCardRequest{
		IssuerCountry:  domain.CountryBrazil,
		Currency:       domain.CurrencyBRL,
		FXFeePercent:   decimal.RequireFromString("2.99"),
		IOFPercent:     decimal.RequireFromString("0.38"),
		CardholderName: "Maria Silva",
		FinalDigits:    "1234",
	})
	if err != nil {
		return fmt.Errorf("seed brazil card: %w", err)
	}

	ptCard, err := paymentSvc.CreateCard(ctx, payments.CreateCardRequest{
		IssuerCountry:  domain.CountryPortugal,
		Currency:       domain.CurrencyEUR,
		FXFeePercent:   decimal.RequireFromString("1.75"),
		IOFPercent:     decimal.Zero,
		CardholderName: "Maria Silva",
		FinalDigits:    "5678",
	})
	if err != nil {
		return fmt.Errorf("seed portugal card: %w", err)
	}

	now := time.Now().UTC()
	for _, card := range []*domain.CreditCard{brCard, ptCard} {
		if _, err := invoiceSvc.CreateInitial(ctx, card.ID, now); err != nil {
			return fmt.Errorf("seed invoice for card %s: %w", card.ID, err)
		}
	}

	if err := seedFixedPayments(ctx, paymentSvc, now); err != nil {
		return err
	}
	if err := seedVariablePayments(ctx, paymentSvc, brCard.ID, ptCard.ID, now); err != nil {
		return err
	}

	created, err := ledgerSvc.ScheduleMonth(ctx, now, cfg.DueDay)
	if err != nil {
		return fmt.Errorf("schedule current month: %w", err)
	}
	slog.Info("ledger scheduled", "month", now.Format("2006-01"), "entries", len(created))

	return nil
}

func seedUser(ctx context.Context, db *sql.DB) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO NOTHING`,
		id, "demo@myfinancial.app", "Maria Silva", string(hash),
	)
	if err != nil {
		return uuid.Nil, err
	}

	// ON CONFLICT may have skipped the insert; read back the real id.
	err = db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = $1`, "demo@myfinancial.app",
	).Scan(&id)
	return id, err
}

func seedProfile(ctx context.Context, db *sql.DB, userID uuid.UUID) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, name, base_currency, monthly_income_brl, monthly_income_eur)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID, "Maria", "BRL", "12000.00", "2500.00",
	)
	return err
}

func seedRates(ctx context.Context, rates *repository.RateRepository) error {
	pairs := []struct {
		from, to domain.Currency
		rate     string
	}{
		{domain.CurrencyEUR, domain.CurrencyBRL, "6.15"},
		{domain.CurrencyBRL, domain.CurrencyEUR, "0.1626"},
		{domain.CurrencyUSD, domain.CurrencyBRL, "5.42"},
		{domain.CurrencyBRL, domain.CurrencyUSD, "0.1845"},
		{domain.CurrencyEUR, domain.CurrencyUSD, "1.13"},
		{domain.CurrencyUSD, domain.CurrencyEUR, "0.8850"},
	}

	today := time.Now().UTC()
	for days := 0; days <= 90; days += 7 {
		date := today.AddDate(0, 0, -days)
		for _, p := range pairs {
			err := rates.Create(ctx, &domain.ExchangeRate{
				ID:           uuid.New(),
				FromCurrency: p.from,
				ToCurrency:   p.to,
				Rate:         decimal.RequireFromString(p.rate),
				Date:         date,
				CreatedAt:    time.Now().UTC(),
			})
			if err != nil {
				slog.Warn("skipping rate", "from", p.from, "to", p.to, "date", date.Format("2006-01-02"), "error", err)
			}
		}
	}
	return nil
}

func seedFixedPayments(ctx context.Context, svc *payments.Service, now time.Time) error {
	start := now.AddDate(0, -6, 0)
	items := []payments.CreateFixedPaymentRequest{
		{Description: "Rent Lisbon", Amount: decimal.RequireFromString("1200.00"), Currency: domain.CurrencyEUR, Country: domain.CountryPortugal, Frequency: domain.FrequencyMonthly, StartDate: start},
		{Description: "Health insurance", Amount: decimal.RequireFromString("450.00"), Currency: domain.CurrencyBRL, Country: domain.CountryBrazil, Frequency: domain.FrequencyMonthly, StartDate: start},
		{Description: "Streaming bundle", Amount: decimal.RequireFromString("55.90"), Currency: domain.CurrencyBRL, Country: domain.CountryBrazil, Frequency: domain.FrequencyMonthly, StartDate: start},
		{Description: "Car insurance", Amount: decimal.RequireFromString("980.00"), Currency: domain.CurrencyEUR, Country: domain.CountryPortugal, Frequency: domain.FrequencyYearly, StartDate: start},
	}
	for _, req := range items {
		if _, err := svc.CreateFixedPayment(ctx, req); err != nil {
			return fmt.Errorf("seed fixed payment %q: %w", req.Description, err)
		}
	}
	return nil
}

func seedVariablePayments(ctx context.Context, svc *payments.Service, brCardID, ptCardID uuid.UUID, now time.Time) error {
	items := []payments.CreateVariablePaymentRequest{
		{Date: now.AddDate(0, 0, -2), Description: "Groceries", Amount: decimal.RequireFromString("320.50"), Currency: domain.CurrencyBRL, Country: domain.CountryBrazil, Category: domain.CategoryFood, CreditCardID: &brCardID},
		{Date: now.AddDate(0, 0, -5), Description: "Flight to Porto", Amount: decimal.RequireFromString("150.00"), Currency: domain.CurrencyEUR, Country: domain.CountryPortugal, Category: domain.CategoryTransport, CreditCardID: &brCardID},
		{Date: now.AddDate(0, 0, -7), Description: "Restaurant", Amount: decimal.RequireFromString("85.00"), Currency: domain.CurrencyEUR, Country: domain.CountryPortugal, Category: domain.CategoryFood, CreditCardID: &ptCardID},
		{Date: now.AddDate(0, 0, -10), Description: "Pharmacy", Amount: decimal.RequireFromString("64.30"), Currency: domain.CurrencyBRL, Country: domain.CountryBrazil, Category: domain.CategoryHealth},
		{Date: now.AddDate(0, 0, -12), Description: "Books", Amount: decimal.RequireFromString("120.00"), Currency: domain.CurrencyUSD, Country: domain.CountryBrazil, Category: domain.CategoryEducation, CreditCardID: &brCardID},
	}
	for _, req := range items {
		if _, err := svc.CreateVariablePayment(ctx, req); err != nil {
			return fmt.Errorf("seed variable payment %q: %w", req.Description, err)
		}
	}
	return nil
}
