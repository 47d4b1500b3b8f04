package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/myfinancial/backend/internal/auth"
	"github.com/myfinancial/backend/internal/domain"
	"github.com/myfinancial/backend/internal/logging"
	"github.com/myfinancial/backend/internal/service/summary"
)

type summaryService interface {
	Summarize(ctx context.Context, userID uuid.UUID, month time.Time, base domain.Currency) (*summary.Report, error)
}

type ReportHandler struct {
	reports summaryService
}

func NewReportHandler(reports summaryService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type breakdownDTO struct {
	Key   string `json:"key"`
	Total string `json:"total"`
}

type reportDTO struct {
	Month        string         `json:"month"`
	BaseCurrency string         `json:"base_currency"`
	Income       string         `json:"income"`
	Expenses     string         `json:"expenses"`
	Fees         string         `json:"fees"`
	Balance      string         `json:"balance"`
	ByCountry    []breakdownDTO `json:"by_country"`
	ByCategory   []breakdownDTO `json:"by_category"`
	ByCurrency   []breakdownDTO `json:"by_currency"`
}

func toBreakdownDTOs(bs []summary.Breakdown) []breakdownDTO {
	out := make([]breakdownDTO, len(bs))
	for i, b := range bs {
		out[i] = breakdownDTO{Key: b.Key, Total: b.Total.String()}
	}
	return out
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	q := r.URL.Query()
	monthParam := q.Get("month")
	if monthParam == "" {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "required"}})
		return
	}
	month, err := parseMonth(monthParam)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "must be YYYY-MM"}})
		return
	}

	base := domain.Currency(q.Get("base"))
	if base == "" {
		base = domain.CurrencyBRL
	}
	if !base.IsValid() {
		RespondValidationError(w, []FieldError{{Field: "base", Message: "must be BRL, EUR, or USD"}})
		return
	}

	report, err := h.reports.Summarize(r.Context(), userID, month, base)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to build summary report", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, reportDTO{
		Month:        report.Month.Format("2006-01"),
		BaseCurrency: string(report.BaseCurrency),
		Income:       report.Income.String(),
		Expenses:     report.Expenses.String(),
		Fees:         report.Fees.String(),
		Balance:      report.Balance.String(),
		ByCountry:    toBreakdownDTOs(report.ByCountry),
		ByCategory:   toBreakdownDTOs(report.ByCategory),
		ByCurrency:   toBreakdownDTOs(report.ByCurrency),
	})
}
