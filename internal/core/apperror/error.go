// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Ledger and inventory rule violations
	CodeBusinessRule       = "BUSINESS_RULE_VIOLATION"
	CodeImbalancedEntries  = "IMBALANCED_ENTRIES"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeMissingAccount     = "MISSING_ACCOUNT"
	CodeDuplicateBatch     = "DUPLICATE_BATCH"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeBatchNotFound      = "BATCH_NOT_FOUND"
	CodeVoucherLocked      = "VOUCHER_LOCKED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeDocumentConfirmed  = "DOCUMENT_ALREADY_CONFIRMED"
	CodeFinancialYearClose = "FINANCIAL_YEAR_CLOSED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (accounts, quantities, totals)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewImbalancedEntries is returned when a voucher's debits and credits differ.
// Totals are passed as strings to keep decimal precision in the response.
func NewImbalancedEntries(totalDebit, totalCredit string) *AppError {
	return &AppError{
		Code:       CodeImbalancedEntries,
		Message:    fmt.Sprintf("Debit total %s does not match credit total %s", totalDebit, totalCredit),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"total_debit":  totalDebit,
			"total_credit": totalCredit,
		},
	}
}

// NewAccountNotFound is returned when an entry references an unknown or inactive account.
func NewAccountNotFound(account string) *AppError {
	return &AppError{
		Code:       CodeAccountNotFound,
		Message:    fmt.Sprintf("Account %s does not exist or is inactive", account),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"account": account},
	}
}

// NewMissingAccount is returned by posting builders when a required account
// is not configured. role names the missing leg, e.g. "cash_or_bank".
func NewMissingAccount(role string) *AppError {
	return &AppError{
		Code:       CodeMissingAccount,
		Message:    fmt.Sprintf("No %s account is configured", role),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"role": role},
	}
}

// NewDuplicateBatch is returned when a batch number is received twice for a product.
func NewDuplicateBatch(productID, batchNumber string) *AppError {
	return &AppError{
		Code:       CodeDuplicateBatch,
		Message:    fmt.Sprintf("Batch %s already exists for this product", batchNumber),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"product_id":   productID,
			"batch_number": batchNumber,
		},
	}
}

// NewInsufficientStock creates a stock shortage error.
// available is the largest quantity held by a single batch.
func NewInsufficientStock(productID string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewBatchNotFound is returned when a return references a batch that was never received.
func NewBatchNotFound(productID, batchNumber string) *AppError {
	return &AppError{
		Code:       CodeBatchNotFound,
		Message:    fmt.Sprintf("Batch %s not found", batchNumber),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"product_id":   productID,
			"batch_number": batchNumber,
		},
	}
}

// NewVoucherLocked is returned on any entry mutation of a voucher that left PENDING.
func NewVoucherLocked(voucherID any, status string) *AppError {
	return &AppError{
		Code:       CodeVoucherLocked,
		Message:    fmt.Sprintf("Voucher is %s and its entries can no longer change", status),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"voucher_id": voucherID, "status": status},
	}
}

// NewInvalidTransition is returned when a state machine move is not allowed.
func NewInvalidTransition(entity, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "from": from, "to": to},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Is reports whether any AppError in the chain carries code.
func Is(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}
