// Package invoice manages the billing lifecycle of credit card
// invoices: bootstrapping a card's first invoice, closing an invoice and
// rolling the card over to the next billing period, and derived reads.
package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/myfinancial/backend/internal/billing"
	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/logging"
)

type invoiceRepo interface {
	Create(ctx context.Context, tx *sql.Tx, inv *domain.CreditCardInvoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCardInvoice, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CreditCardInvoice, error)
	GetOpenByCard(ctx context.Context, cardID uuid.UUID) (*domain.CreditCardInvoice, error)
	ListByCard(ctx context.Context, cardID uuid.UUID, closed *bool) ([]domain.CreditCardInvoice, error)
	SetClosed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type cardRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCard, error)
}

type obligationRepo interface {
	AggregateByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, int, error)
}

type Service struct {
	invoices    invoiceRepo
	cards       cardRepo
	obligations obligationRepo
	db          *sql.DB
	now         func() time.Time
}

func NewService(invoices invoiceRepo, cards cardRepo, obligations obligationRepo, db *sql.DB) *Service {
	return &Service{
		invoices:    invoices,
		cards:       cards,
		obligations: obligations,
		db:          db,
		now:         time.Now,
	}
}

// CreateInitial bootstraps the invoice sequence for a card with an open
// invoice covering the calendar month of anchor. Subsequent invoices are
// only ever created by Close.
func (s *Service) CreateInitial(ctx context.Context, cardID uuid.UUID, anchor time.Time) (*domain.CreditCardInvoice, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("CreateInitial: %w", err)
	}
	if !card.IsActive {
		return nil, fmt.Errorf("CreateInitial: %w", domain.ErrCardInactive)
	}

	if _, err := s.invoices.GetOpenByCard(ctx, cardID); err == nil {
		return nil, fmt.Errorf("CreateInitial: %w", domain.ErrOpenInvoiceExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("CreateInitial: %w", err)
	}

	period := billing.PeriodFor(anchor)
	now := s.now().UTC()
	inv := &domain.CreditCardInvoice{
		ID:        uuid.New(),
		CardID:    cardID,
		StartDate: period.Start,
		EndDate:   period.End,
		IsClosed:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateInitial: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.invoices.Create(ctx, tx, inv); err != nil {
		return nil, fmt.Errorf("CreateInitial: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateInitial: commit: %w", err)
	}

	logging.FromContext(ctx).Info("initial invoice created",
		"invoice_id", inv.ID,
		"card_id", cardID,
		"period_start", inv.StartDate.Format("2006-01-02"),
		"period_end", inv.EndDate.Format("2006-01-02"),
	)

	return inv, nil
}

// Close marks the invoice closed and creates the successor invoice for
// the next billing period in the same transaction. The invoice row is
// locked for the duration, so of two concurrent closes exactly one
// succeeds; the other sees is_closed and fails with ErrInvoiceClosed.
// The card is never left without an open invoice.
func (s *Service) Close(ctx context.Context, invoiceID uuid.UUID) (closed, successor *domain.CreditCardInvoice, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("Close: begin tx: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.invoices.GetForUpdate(ctx, tx, invoiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("Close: %w", err)
	}
	if inv.IsClosed {
		return nil, nil, fmt.Errorf("Close: %w", domain.ErrInvoiceClosed)
	}

	if err := s.invoices.SetClosed(ctx, tx, inv.ID); err != nil {
		return nil, nil, fmt.Errorf("Close: %w", err)
	}

	next := billing.PeriodFor(inv.EndDate.AddDate(0, 0, 1))
	now := s.now().UTC()
	succ := &domain.CreditCardInvoice{
		ID:        uuid.New(),
		CardID:    inv.CardID,
		StartDate: next.Start,
		EndDate:   next.End,
		IsClosed:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.invoices.Create(ctx, tx, succ); err != nil {
		return nil, nil, fmt.Errorf("Close: create successor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("Close: commit: %w", err)
	}

	inv.IsClosed = true

	logging.FromContext(ctx).Info("invoice closed",
		"invoice_id", inv.ID,
		"card_id", inv.CardID,
		"successor_id", succ.ID,
		"next_period_start", succ.StartDate.Format("2006-01-02"),
		"next_period_end", succ.EndDate.Format("2006-01-02"),
	)

	return inv, succ, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCardInvoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return inv, nil
}

func (s *Service) OpenInvoiceFor(ctx context.Context, cardID uuid.UUID) (*domain.CreditCardInvoice, error) {
	inv, err := s.invoices.GetOpenByCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("OpenInvoiceFor: %w", err)
	}
	return inv, nil
}

func (s *Service) ClosedInvoicesFor(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardInvoice, error) {
	closed := true
	invs, err := s.invoices.ListByCard(ctx, cardID, &closed)
	if err != nil {
		return nil, fmt.Errorf("ClosedInvoicesFor: %w", err)
	}
	return invs, nil
}

func (s *Service) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardInvoice, error) {
	invs, err := s.invoices.ListByCard(ctx, cardID, nil)
	if err != nil {
		return nil, fmt.Errorf("ListByCard: %w", err)
	}
	return invs, nil
}

// Totals is the derived view of an invoice: sum and count of the
// obligation entries charged to it, plus the billing period length.
// Sums use expected amounts; actuals only affect reconciliation views.
type Totals struct {
	InvoiceID      uuid.UUID
	TotalAmount    decimal.Decimal
	PurchasesCount int
	BillingDays    int
}

func (s *Service) Totals(ctx context.Context, invoiceID uuid.UUID) (*Totals, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("Totals: %w", err)
	}

	total, count, err := s.obligations.AggregateByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("Totals: %w", err)
	}

	return &Totals{
		InvoiceID:      inv.ID,
		TotalAmount:    total,
		PurchasesCount: count,
		BillingDays:    inv.BillingPeriodDays(),
	}, nil
}
