package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to handlers and API clients.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeSessionExpired      = "SESSION_EXPIRED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeNotFoundOrForbidden = "NOT_FOUND_OR_FORBIDDEN"
	CodeMissingID           = "MISSING_ID"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeStorage             = "STORAGE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError carries per-field messages in Details.
func NewValidationError(message string, fields map[string]string) error {
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewUnauthenticated(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

func NewSessionExpired(message string) error {
	return NewDomainError(CodeSessionExpired, message, http.StatusUnauthorized, nil)
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized, nil)
}

// NewNotFoundOrForbidden deliberately does not say which of the two happened.
func NewNotFoundOrForbidden() error {
	return NewDomainError(CodeNotFoundOrForbidden, "Ticket not found or you are not authorized.", http.StatusNotFound, nil)
}

func NewMissingID() error {
	return NewDomainError(CodeMissingID, "Missing ticket ID.", http.StatusBadRequest, nil)
}

func NewConflict(code, message string) error {
	return NewDomainError(code, message, http.StatusConflict, nil)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

// NewStorageError hides the cause from the message; it is kept for logs via Unwrap.
func NewStorageError(err error) error {
	return &DomainError{
		Code:       CodeStorage,
		Message:    "storage unavailable, please try again",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// FieldErrors extracts the per-field messages of a validation error.
func FieldErrors(err error) map[string]string {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != CodeValidationFailed {
		return nil
	}
	fields := make(map[string]string, len(domainErr.Details))
	for k, v := range domainErr.Details {
		if msg, ok := v.(string); ok {
			fields[k] = msg
		}
	}
	return fields
}
