package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/myfinancial/backend/internal/domain"
)

const rateColumns = `id, from_currency, to_currency, rate, date, created_at`

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) Create(ctx context.Context, rate *domain.ExchangeRate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (id, from_currency, to_currency, rate, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rate.ID, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.Date, rate.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: rate for %s/%s on %s: %w",
				rate.FromCurrency, rate.ToCurrency, rate.Date.Format("2006-01-02"), domain.ErrInvalidRequest)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetOnOrBefore returns the most recent rate for the pair dated on or
// before the given date.
func (r *RateRepository) GetOnOrBefore(ctx context.Context, from, to domain.Currency, date time.Time) (*domain.ExchangeRate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rateColumns+` FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND date <= $3
		ORDER BY date DESC LIMIT 1`, from, to, date,
	)
	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetOnOrBefore: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetOnOrBefore: %w", err)
	}
	return rate, nil
}

// GetExact returns the rate stored for the pair on exactly the given date.
func (r *RateRepository) GetExact(ctx context.Context, from, to domain.Currency, date time.Time) (*domain.ExchangeRate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rateColumns+` FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND date = $3`, from, to, date,
	)
	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetExact: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetExact: %w", err)
	}
	return rate, nil
}

func scanRate(s scanner) (*domain.ExchangeRate, error) {
	var rate domain.ExchangeRate
	err := s.Scan(
		&rate.ID, &rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.Date, &rate.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
