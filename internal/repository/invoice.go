package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/myfinancial/backend/internal/domain"
)

const invoiceColumns = `id, card_id, start_date, end_date, is_closed, created_at, updated_at`

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, tx *sql.Tx, inv *domain.CreditCardInvoice) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_card_invoices (
			id, card_id, start_date, end_date, is_closed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.CardID, inv.StartDate, inv.EndDate, inv.IsClosed,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCardInvoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM credit_card_invoices WHERE id = $1`, id,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return inv, nil
}

// GetForUpdate locks the invoice row for the duration of the enclosing
// transaction. The close transition relies on this to serialize
// concurrent close attempts on the same invoice.
func (r *InvoiceRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CreditCardInvoice, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM credit_card_invoices WHERE id = $1 FOR UPDATE`, id,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) GetOpenByCard(ctx context.Context, cardID uuid.UUID) (*domain.CreditCardInvoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM credit_card_invoices
		WHERE card_id = $1 AND NOT is_closed
		ORDER BY start_date DESC LIMIT 1`, cardID,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetOpenByCard: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetOpenByCard: %w", err)
	}
	return inv, nil
}

// ListByCard returns a card's invoices ordered by period. Pass closed to
// filter on is_closed, or nil for all.
func (r *InvoiceRepository) ListByCard(ctx context.Context, cardID uuid.UUID, closed *bool) ([]domain.CreditCardInvoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM credit_card_invoices WHERE card_id = $1`
	args := []any{cardID}
	if closed != nil {
		query += ` AND is_closed = $2`
		args = append(args, *closed)
	}
	query += ` ORDER BY start_date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListByCard: %w", err)
	}
	defer rows.Close()

	var invoices []domain.CreditCardInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByCard: scan: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCard: rows: %w", err)
	}
	return invoices, nil
}

func (r *InvoiceRepository) SetClosed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE credit_card_invoices SET is_closed = TRUE, updated_at = now()
		WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("SetClosed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetClosed: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetClosed: %w", domain.ErrNotFound)
	}
	return nil
}

func scanInvoice(s scanner) (*domain.CreditCardInvoice, error) {
	var inv domain.CreditCardInvoice
	err := s.Scan(
		&inv.ID, &inv.CardID, &inv.StartDate, &inv.EndDate, &inv.IsClosed,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
