package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/logging"
	"github.com/myfinancial/backend/internal/service/invoice"
)

type invoiceService interface {
	CreateInitial(ctx context.Context, cardID uuid.UUID, anchor time.Time) (*domain.CreditCardInvoice, error)
	Close(ctx context.Context, invoiceID uuid.UUID) (closed, successor *domain.CreditCardInvoice, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCardInvoice, error)
	OpenInvoiceFor(ctx context.Context, cardID uuid.UUID) (*domain.CreditCardInvoice, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardInvoice, error)
	ClosedInvoicesFor(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardInvoice, error)
	Totals(ctx context.Context, invoiceID uuid.UUID) (*invoice.Totals, error)
}

type InvoiceHandler struct {
	invoices invoiceService
	now      func() time.Time
}

func NewInvoiceHandler(invoices invoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, now: time.Now}
}

type createInvoiceRequest struct {
	// Anchor is any date inside the desired first billing period.
	// Defaults to today.
	Anchor string `json:"anchor"`
}

type invoiceDTO struct {
	ID          uuid.UUID `json:"id"`
	CardID      uuid.UUID `json:"card_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	IsClosed    bool      `json:"is_closed"`
	BillingDays int       `json:"billing_days"`
	CreatedAt   time.Time `json:"created_at"`
}

func toInvoiceDTO(inv *domain.CreditCardInvoice) invoiceDTO {
	return invoiceDTO{
		ID:          inv.ID,
		CardID:      inv.CardID,
		StartDate:   inv.StartDate.Format(dateLayout),
		EndDate:     inv.EndDate.Format(dateLayout),
		IsClosed:    inv.IsClosed,
		BillingDays: inv.BillingPeriodDays(),
		CreatedAt:   inv.CreatedAt,
	}
}

func (h *InvoiceHandler) CreateInitial(w http.ResponseWriter, r *http.Request) {
	cardID, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	anchor := h.now().UTC()
	if r.Body != nil && r.ContentLength != 0 {
		var req createInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
		if req.Anchor != "" {
			parsed, err := parseDate(req.Anchor)
			if err != nil {
				RespondValidationError(w, []FieldError{{Field: "anchor", Message: "must be YYYY-MM-DD"}})
				return
			}
			anchor = parsed
		}
	}

	inv, err := h.invoices.CreateInitial(r.Context(), cardID, anchor)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create initial invoice", "error", err, "card_id", cardID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toInvoiceDTO(inv))
}

type closeInvoiceResponse struct {
	Closed    invoiceDTO `json:"closed"`
	Successor invoiceDTO `json:"successor"`
}

func (h *InvoiceHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	closed, successor, err := h.invoices.Close(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to close invoice", "error", err, "invoice_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, closeInvoiceResponse{
		Closed:    toInvoiceDTO(closed),
		Successor: toInvoiceDTO(successor),
	})
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	inv, err := h.invoices.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toInvoiceDTO(inv))
}

// ListByCard returns a card's invoices, optionally filtered with
// ?status=open or ?status=closed.
func (h *InvoiceHandler) ListByCard(w http.ResponseWriter, r *http.Request) {
	cardID, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var invs []domain.CreditCardInvoice
	var err error
	switch r.URL.Query().Get("status") {
	case "open":
		var inv *domain.CreditCardInvoice
		inv, err = h.invoices.OpenInvoiceFor(r.Context(), cardID)
		if inv != nil {
			invs = []domain.CreditCardInvoice{*inv}
		}
	case "closed":
		invs, err = h.invoices.ClosedInvoicesFor(r.Context(), cardID)
	case "":
		invs, err = h.invoices.ListByCard(r.Context(), cardID)
	default:
		RespondValidationError(w, []FieldError{{Field: "status", Message: "must be open or closed"}})
		return
	}
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]invoiceDTO, len(invs))
	for i := range invs {
		dtos[i] = toInvoiceDTO(&invs[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

type totalsDTO struct {
	InvoiceID      uuid.UUID `json:"invoice_id"`
	TotalAmount    string    `json:"total_amount"`
	PurchasesCount int       `json:"purchases_count"`
	BillingDays    int       `json:"billing_days"`
}

func (h *InvoiceHandler) Totals(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	totals, err := h.invoices.Totals(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, totalsDTO{
		InvoiceID:      totals.InvoiceID,
		TotalAmount:    totals.TotalAmount.String(),
		PurchasesCount: totals.PurchasesCount,
		BillingDays:    totals.BillingDays,
	})
}
