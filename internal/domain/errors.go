package domain

import "errors"

var (
	ErrNotFound                  = errors.New("not found")
	ErrInvalidRequest            = errors.New("invalid request")
	ErrInvalidCurrency           = errors.New("invalid currency")
	ErrInvalidCountry            = errors.New("invalid country")
	ErrInvalidAmount             = errors.New("amount must be greater than zero")
	ErrCardInactive              = errors.New("credit card is inactive")
	ErrInvoiceClosed             = errors.New("invoice already closed")
	ErrOpenInvoiceExists         = errors.New("card already has an open invoice")
	ErrDuplicateObligationPeriod = errors.New("obligation already scheduled for this period")
	ErrInvalidObligationRef      = errors.New("obligation status must reference exactly one obligation")
	ErrMissingRate               = errors.New("no exchange rate available")
	ErrEmailExists               = errors.New("email already registered")
	ErrInvalidCredentials        = errors.New("invalid email or password")
)
