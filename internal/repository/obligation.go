package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/myfinancial/backend/internal/domain"
)

const obligationColumns = `id, kind, fixed_payment_id, variable_payment_id, invoice_id,
	month_year, due_date, expected_amount, actual_amount, currency,
	is_paid, paid_date, notes, created_at, updated_at`

// ObligationFilter narrows List queries. Status is the derived
// pending/paid/overdue view, evaluated against Today.
type ObligationFilter struct {
	Kind      *domain.ObligationKind
	Month     *time.Time
	InvoiceID *uuid.UUID
	Status    *domain.StatusLabel
	Today     time.Time
}

// MonthSummary is the reconciliation checklist rollup for one period.
type MonthSummary struct {
	Total         int
	Pending       int
	Paid          int
	Overdue       int
	TotalExpected decimal.Decimal
	TotalActual   decimal.Decimal
}

type ObligationRepository struct {
	db *sql.DB
}

func NewObligationRepository(db *sql.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

func (r *ObligationRepository) Create(ctx context.Context, tx *sql.Tx, st *domain.ObligationStatus) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO obligation_statuses (
			id, kind, fixed_payment_id, variable_payment_id, invoice_id,
			month_year, due_date, expected_amount, actual_amount, currency,
			is_paid, paid_date, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		st.ID, st.Ref.Kind, st.Ref.FixedPaymentID, st.Ref.VariablePaymentID, st.Ref.InvoiceID,
		st.MonthYear, st.DueDate, st.ExpectedAmount, st.ActualAmount, st.Currency,
		st.IsPaid, st.PaidDate, st.Notes, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateObligationPeriod)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ObligationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ObligationStatus, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+obligationColumns+` FROM obligation_statuses WHERE id = $1`, id,
	)
	st, err := scanObligation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return st, nil
}

// UpdatePayment mutates the reconciliation fields only; everything else
// on the entry is immutable after scheduling.
func (r *ObligationRepository) UpdatePayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, isPaid bool, actualAmount *decimal.Decimal, paidDate *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE obligation_statuses
		SET is_paid = $1, actual_amount = $2, paid_date = $3, updated_at = now()
		WHERE id = $4`,
		isPaid, actualAmount, paidDate, id,
	)
	if err != nil {
		return fmt.Errorf("UpdatePayment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdatePayment: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdatePayment: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ObligationRepository) List(ctx context.Context, f ObligationFilter) ([]domain.ObligationStatus, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligation_statuses WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Kind != nil {
		query += ` AND kind = ` + arg(*f.Kind)
	}
	if f.Month != nil {
		query += ` AND month_year = ` + arg(domain.MonthKey(*f.Month))
	}
	if f.InvoiceID != nil {
		query += ` AND invoice_id = ` + arg(*f.InvoiceID)
	}
	if f.Status != nil {
		switch *f.Status {
		case domain.StatusPaid:
			query += ` AND is_paid`
		case domain.StatusOverdue:
			query += ` AND NOT is_paid AND due_date < ` + arg(f.Today)
		case domain.StatusPending:
			query += ` AND NOT is_paid AND due_date >= ` + arg(f.Today)
		}
	}

	query += ` ORDER BY due_date, kind`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var statuses []domain.ObligationStatus
	for rows.Next() {
		st, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		statuses = append(statuses, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return statuses, nil
}

// AggregateByInvoice sums the scheduled (expected) amounts of the
// entries charged to an invoice. Totals are always recomputed here;
// nothing caches them.
func (r *ObligationRepository) AggregateByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(expected_amount), 0), COUNT(*)
		FROM obligation_statuses WHERE invoice_id = $1`, invoiceID,
	).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("AggregateByInvoice: %w", err)
	}
	return total, count, nil
}

func (r *ObligationRepository) SummaryByMonth(ctx context.Context, month, today time.Time) (*MonthSummary, error) {
	var s MonthSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_paid AND due_date >= $2),
			COUNT(*) FILTER (WHERE is_paid),
			COUNT(*) FILTER (WHERE NOT is_paid AND due_date < $2),
			COALESCE(SUM(expected_amount), 0),
			COALESCE(SUM(actual_amount) FILTER (WHERE actual_amount IS NOT NULL), 0)
		FROM obligation_statuses WHERE month_year = $1`,
		domain.MonthKey(month), today,
	).Scan(&s.Total, &s.Pending, &s.Paid, &s.Overdue, &s.TotalExpected, &s.TotalActual)
	if err != nil {
		return nil, fmt.Errorf("SummaryByMonth: %w", err)
	}
	return &s, nil
}

func scanObligation(s scanner) (*domain.ObligationStatus, error) {
	var st domain.ObligationStatus
	var fixedID, variableID, invoiceID uuid.NullUUID
	var actual decimal.NullDecimal

	err := s.Scan(
		&st.ID, &st.Ref.Kind, &fixedID, &variableID, &invoiceID,
		&st.MonthYear, &st.DueDate, &st.ExpectedAmount, &actual, &st.Currency,
		&st.IsPaid, &st.PaidDate, &st.Notes, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fixedID.Valid {
		st.Ref.FixedPaymentID = &fixedID.UUID
	}
	if variableID.Valid {
		st.Ref.VariablePaymentID = &variableID.UUID
	}
	if invoiceID.Valid {
		st.Ref.InvoiceID = &invoiceID.UUID
	}
	if actual.Valid {
		st.ActualAmount = &actual.Decimal
	}

	return &st, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
