package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/myfinancial/backend/internal/domain"
)

const fixedPaymentColumns = `id, description, amount, currency, country, frequency,
	start_date, end_date, is_active, created_at, updated_at`

type FixedPaymentRepository struct {
	db *sql.DB
}

func NewFixedPaymentRepository(db *sql.DB) *FixedPaymentRepository {
	return &FixedPaymentRepository{db: db}
}

func (r *FixedPaymentRepository) Create(ctx context.Context, p *domain.FixedPayment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixed_payments (
			id, description, amount, currency, country, frequency,
			start_date, end_date, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Description, p.Amount, p.Currency, p.Country, p.Frequency,
		p.StartDate, p.EndDate, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FixedPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FixedPayment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fixedPaymentColumns+` FROM fixed_payments WHERE id = $1`, id,
	)
	p, err := scanFixedPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// ListActive returns payments whose recurrence window covers asOf.
func (r *FixedPaymentRepository) ListActive(ctx context.Context, asOf time.Time) ([]domain.FixedPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fixedPaymentColumns+` FROM fixed_payments
		WHERE is_active AND start_date <= $1 AND (end_date IS NULL OR end_date >= $1)
		ORDER BY description`, asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	var payments []domain.FixedPayment
	for rows.Next() {
		p, err := scanFixedPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows: %w", err)
	}
	return payments, nil
}

func scanFixedPayment(s scanner) (*domain.FixedPayment, error) {
	var p domain.FixedPayment
	err := s.Scan(
		&p.ID, &p.Description, &p.Amount, &p.Currency, &p.Country, &p.Frequency,
		&p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
