package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidCurrency           = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidCountry            = &AppError{http.StatusBadRequest, "INVALID_COUNTRY", "Invalid country"}
	ErrInvalidAmount             = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrCardInactive              = &AppError{http.StatusUnprocessableEntity, "CARD_INACTIVE", "Credit card is inactive"}
	ErrInvoiceClosed             = &AppError{http.StatusConflict, "INVOICE_ALREADY_CLOSED", "Invoice is already closed"}
	ErrOpenInvoiceExists         = &AppError{http.StatusConflict, "OPEN_INVOICE_EXISTS", "Card already has an open invoice"}
	ErrDuplicateObligationPeriod = &AppError{http.StatusConflict, "DUPLICATE_OBLIGATION_PERIOD", "Obligation already scheduled for this period"}
	ErrInvalidObligationRef      = &AppError{http.StatusBadRequest, "INVALID_OBLIGATION_REFERENCE", "Exactly one obligation reference must be set"}
	ErrMissingRate               = &AppError{http.StatusUnprocessableEntity, "MISSING_EXCHANGE_RATE", "No exchange rate available for a required currency pair"}
	ErrEmailExists               = &AppError{http.StatusConflict, "EMAIL_ALREADY_EXISTS", "Email already registered"}
)
