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

type cardService interface {
	CreateCard(ctx context.Context, req payments.CreateCardRequest) (*domain.CreditCard, error)
	GetCard(ctx context.Context, id uuid.UUID) (*domain.CreditCard, error)
	ListActiveCards(ctx context.Context) ([]domain.CreditCard, error)
}

type CardHandler struct {
	cards cardService
}

func NewCardHandler(cards cardService) *CardHandler {
	return &CardHandler{cards: cards}
}

type createCardRequest struct {
	IssuerCountry  string `json:"issuer_country"`
	Currency       string `json:"currency"`
	FXFeePercent   string `json:"fx_fee_percent"`
	IOFPercent     string `json:"iof_percent"`
	CardholderName string `json:"cardholder_name"`
	FinalDigits    string `json:"final_digits"`
}

func (r createCardRequest) Validate() []FieldError {
	var errs []FieldError
	if !domain.Country(r.IssuerCountry).IsValid() {
		errs = append(errs, FieldError{Field: "issuer_country", Message: "must be Brazil or Portugal"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be BRL, EUR, or USD"})
	}
	if r.CardholderName == "" {
		errs = append(errs, FieldError{Field: "cardholder_name", Message: "required"})
	}
	if len(r.FinalDigits) != 4 {
		errs = append(errs, FieldError{Field: "final_digits", Message: "must be 4 digits"})
	}
	if r.FXFeePercent != "" {
		if _, err := decimal.NewFromString(r.FXFeePercent); err != nil {
			errs = append(errs, FieldError{Field: "fx_fee_percent", Message: "must be a decimal number"})
		}
	}
	if r.IOFPercent != "" {
		if _, err := decimal.NewFromString(r.IOFPercent); err != nil {
			errs = append(errs, FieldError{Field: "iof_percent", Message: "must be a decimal number"})
		}
	}
	return errs
}

type cardDTO struct {
	ID             uuid.UUID `json:"id"`
	IssuerCountry  string    `json:"issuer_country"`
	Currency       string    `json:"currency"`
	FXFeePercent   string    `json:"fx_fee_percent"`
	IOFPercent     string    `json:"iof_percent"`
	CardholderName string    `json:"cardholder_name"`
	FinalDigits    string    `json:"final_digits"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func toCardDTO(c *domain.CreditCard) cardDTO {
	return cardDTO{
		ID:             c.ID,
		IssuerCountry:  string(c.IssuerCountry),
		Currency:       string(c.Currency),
		FXFeePercent:   c.FXFeePercent.String(),
		IOFPercent:     c.IOFPercent.String(),
		CardholderName: c.CardholderName,
		FinalDigits:    c.FinalDigits,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
	}
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	fxFee := decimal.Zero
	if req.FXFeePercent != "" {
		fxFee = decimal.RequireFromString(req.FXFeePercent)
	}
	iof := decimal.Zero
	if req.IOFPercent != "" {
		iof = decimal.RequireFromString(req.IOFPercent)
	}

	card, err := h.cards.CreateCard(r.Context(), payments.CreateCardRequest{
		IssuerCountry:  domain.Country(req.IssuerCountry),
		Currency:       domain.Currency(req.Currency),
		FXFeePercent:   fxFee,
		IOFPercent:     iof,
		CardholderName: req.CardholderName,
		FinalDigits:    req.FinalDigits,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create card", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toCardDTO(card))
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	card, err := h.cards.GetCard(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCardDTO(card))
}

func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.ListActiveCards(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list cards", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]cardDTO, len(cards))
	for i := range cards {
		dtos[i] = toCardDTO(&cards[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
