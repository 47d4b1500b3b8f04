// Package ledger maintains the reconciliation checklist: one
// ObligationStatus entry per obligation per month, marked paid or
// pending, with overdue derived at read time.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/logging"
	"github.com/myfinancial/backend/internal/repository"
)

type obligationRepo interface {
	Create(ctx context.Context, tx *sql.Tx, st *domain.ObligationStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ObligationStatus, error)
	UpdatePayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, isPaid bool, actualAmount *decimal.Decimal, paidDate *time.Time) error
	List(ctx context.Context, f repository.ObligationFilter) ([]domain.ObligationStatus, error)
	SummaryByMonth(ctx context.Context, month, today time.Time) (*repository.MonthSummary, error)
}

type fixedRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FixedPayment, error)
	ListActive(ctx context.Context, asOf time.Time) ([]domain.FixedPayment, error)
}

type variableRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VariablePayment, error)
}

type invoiceRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCardInvoice, error)
}

type Service struct {
	obligations obligationRepo
	fixed       fixedRepo
	variable    variableRepo
	invoices    invoiceRepo
	db          *sql.DB
	now         func() time.Time
}

func NewService(obligations obligationRepo, fixed fixedRepo, variable variableRepo, invoices invoiceRepo, db *sql.DB) *Service {
	return &Service{
		obligations: obligations,
		fixed:       fixed,
		variable:    variable,
		invoices:    invoices,
		db:          db,
		now:         time.Now,
	}
}

type ScheduleRequest struct {
	Ref            domain.ObligationRef
	MonthYear      time.Time
	DueDate        time.Time
	ExpectedAmount decimal.Decimal
	Currency       domain.Currency
	Notes          *string
}

// Schedule creates the ledger entry for an obligation in a period.
// The (obligation, month) pair is unique; re-scheduling fails with
// ErrDuplicateObligationPeriod.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*domain.ObligationStatus, error) {
	if err := req.Ref.Validate(); err != nil {
		return nil, fmt.Errorf("Schedule: %w", err)
	}
	if !req.ExpectedAmount.IsPositive() {
		return nil, fmt.Errorf("Schedule: %w", domain.ErrInvalidAmount)
	}
	if !req.Currency.IsValid() {
		return nil, fmt.Errorf("Schedule: %w", domain.ErrInvalidCurrency)
	}

	if err := s.verifyRefExists(ctx, req.Ref); err != nil {
		return nil, fmt.Errorf("Schedule: %w", err)
	}

	now := s.now().UTC()
	st := &domain.ObligationStatus{
		ID:             uuid.New(),
		Ref:            req.Ref,
		MonthYear:      domain.MonthKey(req.MonthYear),
		DueDate:        req.DueDate,
		ExpectedAmount: req.ExpectedAmount,
		Currency:       req.Currency,
		IsPaid:         false,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Schedule: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.obligations.Create(ctx, tx, st); err != nil {
		return nil, fmt.Errorf("Schedule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Schedule: commit: %w", err)
	}

	logging.FromContext(ctx).Info("obligation scheduled",
		"status_id", st.ID,
		"kind", st.Ref.Kind,
		"obligation_id", st.Ref.ObligationID(),
		"month", st.MonthYear.Format("2006-01"),
	)

	return st, nil
}

// MarkPaid settles an entry. Omitted actual amount defaults to the
// expected amount; omitted paid date defaults to today.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, actualAmount *decimal.Decimal, paidDate *time.Time) (*domain.ObligationStatus, error) {
	st, err := s.obligations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MarkPaid: %w", err)
	}

	actual := st.ExpectedAmount
	if actualAmount != nil {
		if !actualAmount.IsPositive() {
			return nil, fmt.Errorf("MarkPaid: %w", domain.ErrInvalidAmount)
		}
		actual = *actualAmount
	}

	paid := s.today()
	if paidDate != nil {
		paid = *paidDate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("MarkPaid: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.obligations.UpdatePayment(ctx, tx, id, true, &actual, &paid); err != nil {
		return nil, fmt.Errorf("MarkPaid: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("MarkPaid: commit: %w", err)
	}

	st.IsPaid = true
	st.ActualAmount = &actual
	st.PaidDate = &paid
	return st, nil
}

// MarkPending reverses a settlement, clearing the paid date and actual
// amount.
func (s *Service) MarkPending(ctx context.Context, id uuid.UUID) (*domain.ObligationStatus, error) {
	st, err := s.obligations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MarkPending: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("MarkPending: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.obligations.UpdatePayment(ctx, tx, id, false, nil, nil); err != nil {
		return nil, fmt.Errorf("MarkPending: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("MarkPending: commit: %w", err)
	}

	st.IsPaid = false
	st.ActualAmount = nil
	st.PaidDate = nil
	return st, nil
}

type ListFilter struct {
	Kind      *domain.ObligationKind
	Month     *time.Time
	InvoiceID *uuid.UUID
	Status    *domain.StatusLabel
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.ObligationStatus, error) {
	statuses, err := s.obligations.List(ctx, repository.ObligationFilter{
		Kind:      f.Kind,
		Month:     f.Month,
		InvoiceID: f.InvoiceID,
		Status:    f.Status,
		Today:     s.today(),
	})
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return statuses, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.ObligationStatus, error) {
	st, err := s.obligations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return st, nil
}

func (s *Service) MonthSummary(ctx context.Context, month time.Time) (*repository.MonthSummary, error) {
	summary, err := s.obligations.SummaryByMonth(ctx, month, s.today())
	if err != nil {
		return nil, fmt.Errorf("MonthSummary: %w", err)
	}
	return summary, nil
}

// ScheduleMonth creates entries for every fixed payment recurring in the
// given month, due on dueDay of that month. Payments already scheduled
// for the month are skipped, so the operation is safe to repeat.
func (s *Service) ScheduleMonth(ctx context.Context, month time.Time, dueDay int) ([]domain.ObligationStatus, error) {
	monthKey := domain.MonthKey(month)
	due := monthKey.AddDate(0, 0, dueDay-1)

	payments, err := s.fixed.ListActive(ctx, monthKey)
	if err != nil {
		return nil, fmt.Errorf("ScheduleMonth: %w", err)
	}

	var created []domain.ObligationStatus
	for _, p := range payments {
		st, err := s.Schedule(ctx, ScheduleRequest{
			Ref:            domain.FixedRef(p.ID),
			MonthYear:      monthKey,
			DueDate:        due,
			ExpectedAmount: p.Amount,
			Currency:       p.Currency,
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateObligationPeriod) {
				continue
			}
			return nil, fmt.Errorf("ScheduleMonth: %w", err)
		}
		created = append(created, *st)
	}

	logging.FromContext(ctx).Info("month scheduled",
		"month", monthKey.Format("2006-01"),
		"created", len(created),
		"active_payments", len(payments),
	)

	return created, nil
}

func (s *Service) verifyRefExists(ctx context.Context, ref domain.ObligationRef) error {
	switch ref.Kind {
	case domain.ObligationFixed:
		_, err := s.fixed.GetByID(ctx, *ref.FixedPaymentID)
		return err
	case domain.ObligationVariable:
		_, err := s.variable.GetByID(ctx, *ref.VariablePaymentID)
		return err
	case domain.ObligationInvoice:
		_, err := s.invoices.GetByID(ctx, *ref.InvoiceID)
		return err
	default:
		return domain.ErrInvalidObligationRef
	}
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
