// Package payments creates the obligation sources the ledger tracks:
// credit cards, recurring fixed payments and one-off variable payments.
// Card-linked variable payments get their FX and IOF fees computed and
// stored at creation.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/fees"
	"github.com/myfinancial/backend/internal/logging"
)

type cardRepo interface {
	Create(ctx context.Context, card *domain.CreditCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCard, error)
	ListActive(ctx context.Context) ([]domain.CreditCard, error)
}

type fixedRepo interface {
	Create(ctx context.Context, p *domain.FixedPayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FixedPayment, error)
	ListActive(ctx context.Context, asOf time.Time) ([]domain.FixedPayment, error)
}

type variableRepo interface {
	Create(ctx context.Context, p *domain.VariablePayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VariablePayment, error)
}

type Service struct {
	cards    cardRepo
	fixed    fixedRepo
	variable variableRepo
	now      func() time.Time
}

func NewService(cards cardRepo, fixed fixedRepo, variable variableRepo) *Service {
	return &Service{
		cards:    cards,
		fixed:    fixed,
		variable: variable,
		now:      time.Now,
	}
}

type CreateCardRequest struct {
	IssuerCountry  domain.Country
	Currency       domain.Currency
	FXFeePercent   decimal.Decimal
	IOFPercent     decimal.Decimal
	CardholderName string
	FinalDigits    string
}

func (s *Service) CreateCard(ctx context.Context, req CreateCardRequest) (*domain.CreditCard, error) {
	if !req.IssuerCountry.IsValid() {
		return nil, fmt.Errorf("CreateCard: %w", domain.ErrInvalidCountry)
	}
	if !req.Currency.IsValid() {
		return nil, fmt.Errorf("CreateCard: %w", domain.ErrInvalidCurrency)
	}
	if req.FXFeePercent.IsNegative() || req.IOFPercent.IsNegative() {
		return nil, fmt.Errorf("CreateCard: %w", domain.ErrInvalidAmount)
	}

	now := s.now().UTC()
	card := &domain.CreditCard{
		ID:             uuid.New(),
		IssuerCountry:  req.IssuerCountry,
		Currency:       req.Currency,
		FXFeePercent:   req.FXFeePercent,
		IOFPercent:     req.IOFPercent,
		CardholderName: req.CardholderName,
		FinalDigits:    req.FinalDigits,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("CreateCard: %w", err)
	}
	return card, nil
}

func (s *Service) GetCard(ctx context.Context, id uuid.UUID) (*domain.CreditCard, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetCard: %w", err)
	}
	return card, nil
}

func (s *Service) ListActiveCards(ctx context.Context) ([]domain.CreditCard, error) {
	cards, err := s.cards.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveCards: %w", err)
	}
	return cards, nil
}

type CreateFixedPaymentRequest struct {
	Description string
	Amount      decimal.Decimal
	Currency    domain.Currency
	Country     domain.Country
	Frequency   domain.Frequency
	StartDate   time.Time
	EndDate     *time.Time
}

func (s *Service) CreateFixedPayment(ctx context.Context, req CreateFixedPaymentRequest) (*domain.FixedPayment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("CreateFixedPayment: %w", domain.ErrInvalidAmount)
	}
	if !req.Currency.IsValid() {
		return nil, fmt.Errorf("CreateFixedPayment: %w", domain.ErrInvalidCurrency)
	}
	if !req.Country.IsValid() {
		return nil, fmt.Errorf("CreateFixedPayment: %w", domain.ErrInvalidCountry)
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = domain.FrequencyMonthly
	}

	now := s.now().UTC()
	p := &domain.FixedPayment{
		ID:          uuid.New(),
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Country:     req.Country,
		Frequency:   frequency,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.fixed.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("CreateFixedPayment: %w", err)
	}
	return p, nil
}

type CreateVariablePaymentRequest struct {
	Date         time.Time
	Description  string
	Amount       decimal.Decimal
	Currency     domain.Currency
	Country      domain.Country
	Category     domain.Category
	CreditCardID *uuid.UUID
}

func (s *Service) CreateVariablePayment(ctx context.Context, req CreateVariablePaymentRequest) (*domain.VariablePayment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("CreateVariablePayment: %w", domain.ErrInvalidAmount)
	}
	if !req.Currency.IsValid() {
		return nil, fmt.Errorf("CreateVariablePayment: %w", domain.ErrInvalidCurrency)
	}
	if !req.Country.IsValid() {
		return nil, fmt.Errorf("CreateVariablePayment: %w", domain.ErrInvalidCountry)
	}
	if !req.Category.IsValid() {
		return nil, fmt.Errorf("CreateVariablePayment: %w", domain.ErrInvalidRequest)
	}

	now := s.now().UTC()
	p := &domain.VariablePayment{
		ID:           uuid.New(),
		Date:         req.Date,
		Description:  req.Description,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Country:      req.Country,
		Category:     req.Category,
		CreditCardID: req.CreditCardID,
		FXFeeAmount:  decimal.Zero,
		IOFAmount:    decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.CreditCardID != nil {
		card, err := s.cards.GetByID(ctx, *req.CreditCardID)
		if err != nil {
			return nil, fmt.Errorf("CreateVariablePayment: %w", err)
		}
		if !card.IsActive {
			return nil, fmt.Errorf("CreateVariablePayment: %w", domain.ErrCardInactive)
		}

		f := fees.Calculate(req.Amount, req.Currency, card)
		p.FXFeeAmount = f.FXFee
		p.IOFAmount = f.IOF

		logging.FromContext(ctx).Info("card fees applied",
			"payment_id", p.ID,
			"card_id", card.ID,
			"fx_fee", f.FXFee.String(),
			"iof", f.IOF.String(),
		)
	}

	if err := s.variable.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("CreateVariablePayment: %w", err)
	}
	return p, nil
}
