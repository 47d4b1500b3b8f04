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
	"github.com/myfinancial/backend/internal/repository"
	"github.com/myfinancial/backend/internal/service/ledger"
)

type ledgerService interface {
	Schedule(ctx context.Context, req ledger.ScheduleRequest) (*domain.ObligationStatus, error)
	ScheduleMonth(ctx context.Context, month time.Time, dueDay int) ([]domain.ObligationStatus, error)
	MarkPaid(ctx context.Context, id uuid.UUID, actualAmount *decimal.Decimal, paidDate *time.Time) (*domain.ObligationStatus, error)
	MarkPending(ctx context.Context, id uuid.UUID) (*domain.ObligationStatus, error)
	List(ctx context.Context, f ledger.ListFilter) ([]domain.ObligationStatus, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ObligationStatus, error)
	MonthSummary(ctx context.Context, month time.Time) (*repository.MonthSummary, error)
}

type ObligationHandler struct {
	ledger ledgerService
	dueDay int
	now    func() time.Time
}

func NewObligationHandler(ledger ledgerService, dueDay int) *ObligationHandler {
	return &ObligationHandler{ledger: ledger, dueDay: dueDay, now: time.Now}
}

type scheduleRequest struct {
	Kind           string  `json:"kind"`
	ObligationID   string  `json:"obligation_id"`
	MonthYear      string  `json:"month_year"`
	DueDate        string  `json:"due_date"`
	ExpectedAmount string  `json:"expected_amount"`
	Currency       string  `json:"currency"`
	Notes          *string `json:"notes"`
}

func (r scheduleRequest) Validate() []FieldError {
	var errs []FieldError
	if !domain.ObligationKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be fixed, variable, or invoice"})
	}
	if _, err := uuid.Parse(r.ObligationID); err != nil {
		errs = append(errs, FieldError{Field: "obligation_id", Message: "must be a UUID"})
	}
	if _, err := parseMonth(r.MonthYear); err != nil {
		errs = append(errs, FieldError{Field: "month_year", Message: "must be YYYY-MM"})
	}
	if _, err := parseDate(r.DueDate); err != nil {
		errs = append(errs, FieldError{Field: "due_date", Message: "must be YYYY-MM-DD"})
	}
	if amt, err := decimal.NewFromString(r.ExpectedAmount); err != nil || !amt.IsPositive() {
		errs = append(errs, FieldError{Field: "expected_amount", Message: "must be a positive decimal"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be BRL, EUR, or USD"})
	}
	return errs
}

func (r scheduleRequest) ref() domain.ObligationRef {
	id := uuid.MustParse(r.ObligationID)
	switch domain.ObligationKind(r.Kind) {
	case domain.ObligationFixed:
		return domain.FixedRef(id)
	case domain.ObligationVariable:
		return domain.VariableRef(id)
	default:
		return domain.InvoiceRef(id)
	}
}

type obligationDTO struct {
	ID             uuid.UUID `json:"id"`
	Kind           string    `json:"kind"`
	ObligationID   uuid.UUID `json:"obligation_id"`
	MonthYear      string    `json:"month_year"`
	DueDate        string    `json:"due_date"`
	ExpectedAmount string    `json:"expected_amount"`
	ActualAmount   *string   `json:"actual_amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	PaidDate       *string   `json:"paid_date"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

func toObligationDTO(st *domain.ObligationStatus, today time.Time) obligationDTO {
	dto := obligationDTO{
		ID:             st.ID,
		Kind:           string(st.Ref.Kind),
		ObligationID:   st.Ref.ObligationID(),
		MonthYear:      st.MonthYear.Format("2006-01"),
		DueDate:        st.DueDate.Format(dateLayout),
		ExpectedAmount: st.ExpectedAmount.String(),
		Currency:       string(st.Currency),
		Status:         string(st.Status(today)),
		Notes:          st.Notes,
		CreatedAt:      st.CreatedAt,
	}
	if st.ActualAmount != nil {
		s := st.ActualAmount.String()
		dto.ActualAmount = &s
	}
	if st.PaidDate != nil {
		s := st.PaidDate.Format(dateLayout)
		dto.PaidDate = &s
	}
	return dto
}

func (h *ObligationHandler) today() time.Time {
	now := h.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (h *ObligationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	month, _ := parseMonth(req.MonthYear)
	due, _ := parseDate(req.DueDate)

	st, err := h.ledger.Schedule(r.Context(), ledger.ScheduleRequest{
		Ref:            req.ref(),
		MonthYear:      month,
		DueDate:        due,
		ExpectedAmount: decimal.RequireFromString(req.ExpectedAmount),
		Currency:       domain.Currency(req.Currency),
		Notes:          req.Notes,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to schedule obligation", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toObligationDTO(st, h.today()))
}

type scheduleMonthRequest struct {
	Month  string `json:"month"`
	DueDay *int   `json:"due_day"`
}

func (h *ObligationHandler) ScheduleMonth(w http.ResponseWriter, r *http.Request) {
	var req scheduleMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	month, err := parseMonth(req.Month)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "must be YYYY-MM"}})
		return
	}

	dueDay := h.dueDay
	if req.DueDay != nil {
		if *req.DueDay < 1 || *req.DueDay > 28 {
			RespondValidationError(w, []FieldError{{Field: "due_day", Message: "must be between 1 and 28"}})
			return
		}
		dueDay = *req.DueDay
	}

	created, err := h.ledger.ScheduleMonth(r.Context(), month, dueDay)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to schedule month", "error", err)
		RespondDomainError(w, err)
		return
	}

	today := h.today()
	dtos := make([]obligationDTO, len(created))
	for i := range created {
		dtos[i] = toObligationDTO(&created[i], today)
	}

	RespondSuccess(w, http.StatusCreated, dtos)
}

type payRequest struct {
	ActualAmount *string `json:"actual_amount"`
	PaidDate     *string `json:"paid_date"`
}

func (h *ObligationHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req payRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
	}

	var actual *decimal.Decimal
	if req.ActualAmount != nil {
		amt, err := decimal.NewFromString(*req.ActualAmount)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "actual_amount", Message: "must be a decimal number"}})
			return
		}
		actual = &amt
	}

	var paidDate *time.Time
	if req.PaidDate != nil {
		d, err := parseDate(*req.PaidDate)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "paid_date", Message: "must be YYYY-MM-DD"}})
			return
		}
		paidDate = &d
	}

	st, err := h.ledger.MarkPaid(r.Context(), id, actual, paidDate)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to mark paid", "error", err, "status_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toObligationDTO(st, h.today()))
}

func (h *ObligationHandler) Unpay(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	st, err := h.ledger.MarkPending(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to mark pending", "error", err, "status_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toObligationDTO(st, h.today()))
}

func (h *ObligationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	st, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toObligationDTO(st, h.today()))
}

func (h *ObligationHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter ledger.ListFilter
	var fields []FieldError

	q := r.URL.Query()
	if v := q.Get("kind"); v != "" {
		kind := domain.ObligationKind(v)
		if !kind.IsValid() {
			fields = append(fields, FieldError{Field: "kind", Message: "must be fixed, variable, or invoice"})
		}
		filter.Kind = &kind
	}
	if v := q.Get("month"); v != "" {
		month, err := parseMonth(v)
		if err != nil {
			fields = append(fields, FieldError{Field: "month", Message: "must be YYYY-MM"})
		}
		filter.Month = &month
	}
	if v := q.Get("invoice_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fields = append(fields, FieldError{Field: "invoice_id", Message: "must be a UUID"})
		}
		filter.InvoiceID = &id
	}
	if v := q.Get("status"); v != "" {
		status := domain.StatusLabel(v)
		if !status.IsValid() {
			fields = append(fields, FieldError{Field: "status", Message: "must be pending, paid, or overdue"})
		}
		filter.Status = &status
	}

	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	statuses, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list obligations", "error", err)
		RespondDomainError(w, err)
		return
	}

	today := h.today()
	dtos := make([]obligationDTO, len(statuses))
	for i := range statuses {
		dtos[i] = toObligationDTO(&statuses[i], today)
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

type monthSummaryDTO struct {
	Month         string `json:"month"`
	Total         int    `json:"total"`
	Pending       int    `json:"pending"`
	Paid          int    `json:"paid"`
	Overdue       int    `json:"overdue"`
	TotalExpected string `json:"total_expected"`
	TotalActual   string `json:"total_actual"`
}

func (h *ObligationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	monthParam := r.URL.Query().Get("month")
	if monthParam == "" {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "required"}})
		return
	}
	month, err := parseMonth(monthParam)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "must be YYYY-MM"}})
		return
	}

	summary, err := h.ledger.MonthSummary(r.Context(), month)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to summarize month", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, monthSummaryDTO{
		Month:         month.Format("2006-01"),
		Total:         summary.Total,
		Pending:       summary.Pending,
		Paid:          summary.Paid,
		Overdue:       summary.Overdue,
		TotalExpected: summary.TotalExpected.String(),
		TotalActual:   summary.TotalActual.String(),
	})
}
