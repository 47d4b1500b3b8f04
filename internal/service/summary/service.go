// Package summary builds read-only period reports over the ledger,
// normalized into a single base currency using stored exchange rates.
package summary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/repository"
)

// RatePolicy selects which stored rate applies to a conversion date.
type RatePolicy string

const (
	// PolicyMostRecent uses the newest rate dated on or before the
	// conversion date.
	PolicyMostRecent RatePolicy = "most_recent"
	// PolicySameDay requires a rate stored for exactly the conversion
	// date.
	PolicySameDay RatePolicy = "same_day"
)

func (p RatePolicy) IsValid() bool {
	return p == PolicyMostRecent || p == PolicySameDay
}

type rateRepo interface {
	GetOnOrBefore(ctx context.Context, from, to domain.Currency, date time.Time) (*domain.ExchangeRate, error)
	GetExact(ctx context.Context, from, to domain.Currency, date time.Time) (*domain.ExchangeRate, error)
}

type obligationRepo interface {
	List(ctx context.Context, f repository.ObligationFilter) ([]domain.ObligationStatus, error)
}

type variableRepo interface {
	ListByPeriod(ctx context.Context, from, to time.Time) ([]domain.VariablePayment, error)
}

type profileRepo interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

type Service struct {
	obligations obligationRepo
	variable    variableRepo
	rates       rateRepo
	profiles    profileRepo
	policy      RatePolicy
}

func NewService(obligations obligationRepo, variable variableRepo, rates rateRepo, profiles profileRepo, policy RatePolicy) *Service {
	if !policy.IsValid() {
		policy = PolicyMostRecent
	}
	return &Service{
		obligations: obligations,
		variable:    variable,
		rates:       rates,
		profiles:    profiles,
		policy:      policy,
	}
}

// Breakdown is one group line of a report, already in the base currency.
type Breakdown struct {
	Key   string
	Total decimal.Decimal
}

type Report struct {
	Month        time.Time
	BaseCurrency domain.Currency
	Income       decimal.Decimal
	Expenses     decimal.Decimal
	Fees         decimal.Decimal
	Balance      decimal.Decimal
	ByCountry    []Breakdown
	ByCategory   []Breakdown
	ByCurrency   []Breakdown
}

// Summarize rolls up the given month for the user: ledger obligations as
// expenses (actual amount once paid, expected otherwise, converted at
// the entry's due date), card fees from the month's variable payments,
// and declared income from the profile. Fails with ErrMissingRate when
// a needed conversion has no stored rate; a 1:1 rate is never assumed.
func (s *Service) Summarize(ctx context.Context, userID uuid.UUID, month time.Time, base domain.Currency) (*Report, error) {
	if !base.IsValid() {
		return nil, fmt.Errorf("Summarize: %w", domain.ErrInvalidCurrency)
	}

	monthKey := domain.MonthKey(month)
	report := &Report{
		Month:        monthKey,
		BaseCurrency: base,
		Income:       decimal.Zero,
		Expenses:     decimal.Zero,
		Fees:         decimal.Zero,
	}

	if err := s.addIncome(ctx, report, userID, monthKey, base); err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}
	if err := s.addExpenses(ctx, report, monthKey, base); err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}
	if err := s.addFees(ctx, report, monthKey, base); err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	report.Balance = report.Income.Sub(report.Expenses).Sub(report.Fees)
	return report, nil
}

func (s *Service) addIncome(ctx context.Context, report *Report, userID uuid.UUID, month time.Time, base domain.Currency) error {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("addIncome: %w", err)
	}

	for currency, amount := range profile.Incomes() {
		converted, err := s.convert(ctx, amount, currency, base, month)
		if err != nil {
			return fmt.Errorf("addIncome: %w", err)
		}
		report.Income = report.Income.Add(converted)
	}
	return nil
}

func (s *Service) addExpenses(ctx context.Context, report *Report, month time.Time, base domain.Currency) error {
	entries, err := s.obligations.List(ctx, repository.ObligationFilter{Month: &month})
	if err != nil {
		return fmt.Errorf("addExpenses: %w", err)
	}

	byCurrency := map[string]decimal.Decimal{}
	for _, e := range entries {
		amount := e.ExpectedAmount
		if e.ActualAmount != nil {
			amount = *e.ActualAmount
		}
		converted, err := s.convert(ctx, amount, e.Currency, base, e.DueDate)
		if err != nil {
			return fmt.Errorf("addExpenses: %w", err)
		}
		report.Expenses = report.Expenses.Add(converted)
		key := string(e.Currency)
		byCurrency[key] = byCurrency[key].Add(converted)
	}

	report.ByCurrency = toBreakdowns(byCurrency)
	return nil
}

func (s *Service) addFees(ctx context.Context, report *Report, month time.Time, base domain.Currency) error {
	end := month.AddDate(0, 1, 0).AddDate(0, 0, -1)
	payments, err := s.variable.ListByPeriod(ctx, month, end)
	if err != nil {
		return fmt.Errorf("addFees: %w", err)
	}

	byCountry := map[string]decimal.Decimal{}
	byCategory := map[string]decimal.Decimal{}
	for _, p := range payments {
		fees := p.FXFeeAmount.Add(p.IOFAmount)
		if fees.IsPositive() {
			converted, err := s.convert(ctx, fees, p.Currency, base, p.Date)
			if err != nil {
				return fmt.Errorf("addFees: %w", err)
			}
			report.Fees = report.Fees.Add(converted)
		}

		amount, err := s.convert(ctx, p.Amount, p.Currency, base, p.Date)
		if err != nil {
			return fmt.Errorf("addFees: %w", err)
		}
		byCountry[string(p.Country)] = byCountry[string(p.Country)].Add(amount)
		byCategory[string(p.Category)] = byCategory[string(p.Category)].Add(amount)
	}

	report.ByCountry = toBreakdowns(byCountry)
	report.ByCategory = toBreakdowns(byCategory)
	return nil
}

func (s *Service) convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	var rate *domain.ExchangeRate
	var err error
	switch s.policy {
	case PolicySameDay:
		rate, err = s.rates.GetExact(ctx, from, to, date)
	default:
		rate, err = s.rates.GetOnOrBefore(ctx, from, to, date)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("convert: %s to %s on %s: %w",
				from, to, date.Format("2006-01-02"), domain.ErrMissingRate)
		}
		return decimal.Zero, fmt.Errorf("convert: %w", err)
	}

	return amount.Mul(rate.Rate).Round(2), nil
}

func toBreakdowns(m map[string]decimal.Decimal) []Breakdown {
	if len(m) == 0 {
		return nil
	}
	out := make([]Breakdown, 0, len(m))
	for k, v := range m {
		out = append(out, Breakdown{Key: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
