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

const variablePaymentColumns = `id, date, description, amount, currency, country,
	category, credit_card_id, fx_fee_amount, iof_amount, created_at, updated_at`

type VariablePaymentRepository struct {
	db *sql.DB
}

func NewVariablePaymentRepository(db *sql.DB) *VariablePaymentRepository {
	return &VariablePaymentRepository{db: db}
}

func (r *VariablePaymentRepository) Create(ctx context.Context, p *domain.VariablePayment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO variable_payments (
			id, date, description, amount, currency, country,
			category, credit_card_id, fx_fee_amount, iof_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Date, p.Description, p.Amount, p.Currency, p.Country,
		p.Category, p.CreditCardID, p.FXFeeAmount, p.IOFAmount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *VariablePaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VariablePayment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+variablePaymentColumns+` FROM variable_payments WHERE id = $1`, id,
	)
	p, err := scanVariablePayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// ListByPeriod returns payments dated within [from, to] inclusive.
func (r *VariablePaymentRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]domain.VariablePayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+variablePaymentColumns+` FROM variable_payments
		WHERE date >= $1 AND date <= $2 ORDER BY date`, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByPeriod: %w", err)
	}
	defer rows.Close()

	var payments []domain.VariablePayment
	for rows.Next() {
		p, err := scanVariablePayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByPeriod: scan: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByPeriod: rows: %w", err)
	}
	return payments, nil
}

func scanVariablePayment(s scanner) (*domain.VariablePayment, error) {
	var p domain.VariablePayment
	var cardID uuid.NullUUID

	err := s.Scan(
		&p.ID, &p.Date, &p.Description, &p.Amount, &p.Currency, &p.Country,
		&p.Category, &cardID, &p.FXFeeAmount, &p.IOFAmount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cardID.Valid {
		p.CreditCardID = &cardID.UUID
	}
	return &p, nil
}
