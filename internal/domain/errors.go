package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Domain Error Types
// ============================================================================

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code, so wrapped variants still satisfy
// errors.Is against the sentinels below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// Common Domain Errors
// ============================================================================

var (
	// Session Errors
	ErrAuthFailed = &DomainError{
		Code:    "AUTH_FAILED",
		Message: "authentication failed",
	}
	ErrNotAuthenticated = &DomainError{
		Code:    "NOT_AUTHENTICATED",
		Message: "no active session",
	}

	// Token Store Errors
	ErrTokenStore = &DomainError{
		Code:    "TOKEN_STORE_FAILED",
		Message: "token store operation failed",
	}

	// Route Errors
	ErrRouteNotFound = &DomainError{
		Code:    "ROUTE_NOT_FOUND",
		Message: "route not found",
	}
	ErrRouteTableInvalid = &DomainError{
		Code:    "ROUTE_TABLE_INVALID",
		Message: "route table is invalid",
	}
	ErrViewUnavailable = &DomainError{
		Code:    "VIEW_UNAVAILABLE",
		Message: "view could not be loaded",
	}

	// Validation Errors
	ErrValidationFailed = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
	}

	// Infrastructure Errors
	ErrNetworkOperation = &DomainError{
		Code:    "NETWORK_OPERATION_FAILED",
		Message: "network operation failed",
	}
)

// ============================================================================
// Error Wrapping Helpers
// ============================================================================

// WrapAuthFailed wraps a failed session action. message is the user-facing text.
func WrapAuthFailed(message string, cause error) error {
	return &DomainError{
		Code:    ErrAuthFailed.Code,
		Message: message,
		Cause:   cause,
	}
}

// WrapTokenStore wraps an error from the durable token slot
func WrapTokenStore(operation string, cause error) error {
	return &DomainError{
		Code:    ErrTokenStore.Code,
		Message: fmt.Sprintf("token store operation failed: %s", operation),
		Cause:   cause,
	}
}

// WrapRouteNotFound wraps a lookup miss for path
func WrapRouteNotFound(path string) error {
	return &DomainError{
		Code:    ErrRouteNotFound.Code,
		Message: fmt.Sprintf("route not found: %s", path),
	}
}

// WrapRouteTableInvalid wraps a route table construction failure
func WrapRouteTableInvalid(reason string) error {
	return &DomainError{
		Code:    ErrRouteTableInvalid.Code,
		Message: fmt.Sprintf("route table is invalid: %s", reason),
	}
}

// WrapViewUnavailable wraps a failed lazy view load for route name
func WrapViewUnavailable(name string, cause error) error {
	return &DomainError{
		Code:    ErrViewUnavailable.Code,
		Message: fmt.Sprintf("view could not be loaded: %s", name),
		Cause:   cause,
	}
}

// WrapValidationError wraps an error as a validation error for field
func WrapValidationError(field string, cause error) error {
	msg := fmt.Sprintf("validation failed for %s", field)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &DomainError{
		Code:    ErrValidationFailed.Code,
		Message: msg,
	}
}

// WrapNetworkOperation wraps a transport failure
func WrapNetworkOperation(operation string, cause error) error {
	return &DomainError{
		Code:    ErrNetworkOperation.Code,
		Message: fmt.Sprintf("network operation failed: %s", operation),
		Cause:   cause,
	}
}

// ============================================================================
// Error Checking Helpers
// ============================================================================

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrRouteNotFound.Code)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasCode(err, ErrValidationFailed.Code, ErrRouteTableInvalid.Code)
}

// IsAuthError checks if an error came from a session action or a missing session
func IsAuthError(err error) bool {
	return hasCode(err, ErrAuthFailed.Code, ErrNotAuthenticated.Code)
}

// IsInfrastructureError checks if an error is an infrastructure error
func IsInfrastructureError(err error) bool {
	return hasCode(err, ErrTokenStore.Code, ErrNetworkOperation.Code)
}

// PublicMessage returns the Message of the outermost DomainError in err, or err.Error()
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

func hasCode(err error, codes ...string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	for _, c := range codes {
		if domainErr.Code == c {
			return true
		}
	}
	return false
}
