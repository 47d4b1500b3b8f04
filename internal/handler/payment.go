package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/logging"
	"github.com/myfinancial/backend/internal/service/payments"
)

type paymentService interface {
	CreateFixedPayment(ctx context.Context, req payments.CreateFixedPaymentRequest) (*domain.FixedPayment, error)
	CreateVariablePayment(ctx context.Context, req payments.CreateVariablePaymentRequest) (*domain.VariablePayment, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createFixedPaymentRequest struct {
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Country     string  `json:"country"`
	Frequency   string  `json:"frequency"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

func (r createFixedPaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	if amt, err := decimal.NewFromString(r.Amount); err != nil || !amt.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive decimal"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be BRL, EUR, or USD"})
	}
	if !domain.Country(r.Country).IsValid() {
		errs = append(errs, FieldError{Field: "country", Message: "must be Brazil or Portugal"})
	}
	if r.Frequency != "" && !domain.Frequency(r.Frequency).IsValid() {
		errs = append(errs, FieldError{Field: "frequency", Message: "must be monthly or yearly"})
	}
	if _, err := parseDate(r.StartDate); err != nil {
		errs = append(errs, FieldError{Field: "start_date", Message: "must be YYYY-MM-DD"})
	}
	if r.EndDate != nil {
		if _, err := parseDate(*r.EndDate); err != nil {
			errs = append(errs, FieldError{Field: "end_date", Message: "must be YYYY-MM-DD"})
		}
	}
	return errs
}

type fixedPaymentDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Country     string    `json:"country"`
	Frequency   string    `json:"frequency"`
	StartDate   string    `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toFixedPaymentDTO(p *domain.FixedPayment) fixedPaymentDTO {
	dto := fixedPaymentDTO{
		ID:          p.ID,
		Description: p.Description,
		Amount:      p.Amount.String(),
		Currency:    string(p.Currency),
		Country:     string(p.Country),
		Frequency:   string(p.Frequency),
		StartDate:   p.StartDate.Format(dateLayout),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
	if p.EndDate != nil {
		s := p.EndDate.Format(dateLayout)
		dto.EndDate = &s
	}
	return dto
}

func (h *PaymentHandler) CreateFixed(w http.ResponseWriter, r *http.Request) {
	var req createFixedPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	start, _ := parseDate(req.StartDate)
	var end *time.Time
	if req.EndDate != nil {
		parsed, _ := parseDate(*req.EndDate)
		end = &parsed
	}

	p, err := h.payments.CreateFixedPayment(r.Context(), payments.CreateFixedPaymentRequest{
		Description: req.Description,
		Amount:      decimal.RequireFromString(req.Amount),
		Currency:    domain.Currency(req.Currency),
		Country:     domain.Country(req.Country),
		Frequency:   domain.Frequency(req.Frequency),
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create fixed payment", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toFixedPaymentDTO(p))
}

type createVariablePaymentRequest struct {
	Date         string  `json:"date"`
	Description  string  `json:"description"`
	Amount       string  `json:"amount"`
	Currency     string  `json:"currency"`
	Country      string  `json:"country"`
	Category     string  `json:"category"`
	CreditCardID *string `json:"credit_card_id"`
}

func (r createVariablePaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := parseDate(r.Date); err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
	}
	if r.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	if amt, err := decimal.NewFromString(r.Amount); err != nil || !amt.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive decimal"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be BRL, EUR, or USD"})
	}
	if !domain.Country(r.Country).IsValid() {
		errs = append(errs, FieldError{Field: "country", Message: "must be Brazil or Portugal"})
	}
	if !domain.Category(r.Category).IsValid() {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}
	if r.CreditCardID != nil {
		if _, err := uuid.Parse(*r.CreditCardID); err != nil {
			errs = append(errs, FieldError{Field: "credit_card_id", Message: "must be a UUID"})
		}
	}
	return errs
}

type variablePaymentDTO struct {
	ID            uuid.UUID  `json:"id"`
	Date          string     `json:"date"`
	Description   string     `json:"description"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Country       string     `json:"country"`
	Category      string     `json:"category"`
	CreditCardID  *uuid.UUID `json:"credit_card_id"`
	FXFeeAmount   string     `json:"fx_fee_amount"`
	IOFAmount     string     `json:"iof_amount"`
	TotalWithFees string     `json:"total_with_fees"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toVariablePaymentDTO(p *domain.VariablePayment) variablePaymentDTO {
	return variablePaymentDTO{
		ID:            p.ID,
		Date:          p.Date.Format(dateLayout),
		Description:   p.Description,
		Amount:        p.Amount.String(),
		Currency:      string(p.Currency),
		Country:       string(p.Country),
		Category:      string(p.Category),
		CreditCardID:  p.CreditCardID,
		FXFeeAmount:   p.FXFeeAmount.String(),
		IOFAmount:     p.IOFAmount.String(),
		TotalWithFees: p.TotalWithFees().String(),
		CreatedAt:     p.CreatedAt,
	}
}

func (h *PaymentHandler) CreateVariable(w http.ResponseWriter, r *http.Request) {
	var req createVariablePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	date, _ := parseDate(req.Date)
	var cardID *uuid.UUID
	if req.CreditCardID != nil {
		id := uuid.MustParse(*req.CreditCardID)
		cardID = &id
	}

	p, err := h.payments.CreateVariablePayment(r.Context(), payments.CreateVariablePaymentRequest{
		Date:         date,
		Description:  req.Description,
		Amount:       decimal.RequireFromString(req.Amount),
		Currency:     domain.Currency(req.Currency),
		Country:      domain.Country(req.Country),
		Category:     domain.Category(req.Category),
		CreditCardID: cardID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create variable payment", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toVariablePaymentDTO(p))
}
