package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Reconciliation (REC) ----

func ErrOrderNotFound(orderID int64) *AppError {
	return New("REC_001", fmt.Sprintf("Order %d not found", orderID), http.StatusNotFound)
}

// ErrMergeConflict reports a PAID order whose recorded transaction id differs
// from the one a later callback carries. The existing record is never replaced.
// The wrapped cause is domain.ErrTransactionConflict so callers can match it
// with errors.Is.
func ErrMergeConflict(orderID int64, recorded, incoming string, cause error) *AppError {
	return Wrap("REC_002",
		fmt.Sprintf("Order %d already paid with transaction %s, refusing to record %s", orderID, recorded, incoming),
		http.StatusConflict, cause)
}

func ErrInvalidReference(reference string) *AppError {
	return New("REC_003", fmt.Sprintf("Payment reference %q is not decodable", reference), http.StatusUnprocessableEntity)
}

func ErrVerificationUnavailable(err error) *AppError {
	return Wrap("REC_004", "Gateway verification endpoint unavailable", http.StatusBadGateway, err)
}

func ErrInvalidAmount() *AppError {
	return New("REC_005", "Invalid amount", http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a REC_005-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("REC_005", message, http.StatusBadRequest)
}
