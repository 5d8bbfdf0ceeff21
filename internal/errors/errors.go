// Package errors provides structured application errors. All
// service-layer errors should use AppError so handlers can return
// consistent responses that never leak internal details to clients.
package errors

import "net/http"

// AppError carries an error code, a client-safe message, the HTTP
// status to respond with, and an optional wrapped internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountDeactivated = &AppError{Code: "ACCOUNT_DEACTIVATED", Message: "Your account is deactivated. Contact support", StatusCode: http.StatusForbidden}
	ErrAccountBanned      = &AppError{Code: "ACCOUNT_BANNED", Message: "Your account has been banned", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User & desk errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrDeskNotFound   = &AppError{Code: "DESK_NOT_FOUND", Message: "Desk not found", StatusCode: http.StatusNotFound}
	ErrDuplicateDesk  = &AppError{Code: "DUPLICATE_DESK", Message: "A desk with this name already exists", StatusCode: http.StatusConflict}
	ErrNoDesk         = &AppError{Code: "NO_DESK", Message: "User is not assigned to a desk", StatusCode: http.StatusBadRequest}
)

// Trade errors.
var (
	ErrTradeNotFound  = &AppError{Code: "TRADE_NOT_FOUND", Message: "Trade not found", StatusCode: http.StatusNotFound}
	ErrTradeImmutable = &AppError{Code: "TRADE_IMMUTABLE", Message: "Trade records are immutable once created", StatusCode: http.StatusConflict}
)

// Gamification errors.
var (
	ErrBadgeNotFound        = &AppError{Code: "BADGE_NOT_FOUND", Message: "Badge not found", StatusCode: http.StatusNotFound}
	ErrNotificationNotFound = &AppError{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found", StatusCode: http.StatusNotFound}
)

// Advisory & reporting errors.
var (
	ErrAdvisoryDisabled = &AppError{Code: "ADVISORY_DISABLED", Message: "AI advisory is disabled", StatusCode: http.StatusForbidden}
	ErrReportNotFound   = &AppError{Code: "REPORT_NOT_FOUND", Message: "Report not found", StatusCode: http.StatusNotFound}
	ErrReportFailed     = &AppError{Code: "REPORT_FAILED", Message: "Report generation failed", StatusCode: http.StatusInternalServerError}
)

// Invoice errors.
var (
	ErrInvoiceNotFound  = &AppError{Code: "INVOICE_NOT_FOUND", Message: "Invoice not found", StatusCode: http.StatusNotFound}
	ErrDuplicateInvoice = &AppError{Code: "DUPLICATE_INVOICE", Message: "An invoice already exists for this trade", StatusCode: http.StatusConflict}
)
