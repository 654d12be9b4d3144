package model

import "sort"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeProductUnavailable  = "PRODUCT_UNAVAILABLE"
	ErrCodeOutOfStock          = "OUT_OF_STOCK"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeInvalidStatus       = "INVALID_STATUS_TRANSITION"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeSlugTaken           = "SLUG_TAKEN"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeEmailNotVerified    = "EMAIL_NOT_VERIFIED"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeUnsupportedMedia    = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrCodeTrackingNotFound    = "TRACKING_NOT_FOUND"
	ErrCodeInvalidTrackingCode = "INVALID_TRACKING_CODE"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeSelfModification    = "SELF_MODIFICATION"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrProductUnavailable  = NewDomainError(ErrCodeProductUnavailable, "One or more products are not available for sale")
	ErrOutOfStock          = NewDomainError(ErrCodeOutOfStock, "Insufficient stock for one or more products")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "Order must contain at least one item")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidStatus       = NewDomainError(ErrCodeInvalidStatus, "Order status transition is not allowed")
	ErrNotFound            = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrSlugTaken           = NewDomainError(ErrCodeSlugTaken, "Slug is already in use")
	ErrEmailTaken          = NewDomainError(ErrCodeEmailTaken, "Email is already registered")
	ErrInvalidCredentials  = NewDomainError(ErrCodeInvalidCredentials, "Invalid email or password")
	ErrEmailNotVerified    = NewDomainError(ErrCodeEmailNotVerified, "Email address has not been verified")
	ErrInvalidToken        = NewDomainError(ErrCodeInvalidToken, "Token is invalid or has expired")
	ErrAddressNotFound     = NewDomainError(ErrCodeAddressNotFound, "Address not found")
	ErrUnsupportedMedia    = NewDomainError(ErrCodeUnsupportedMedia, "Only JPEG, PNG, WebP and GIF images are accepted")
	ErrFileTooLarge        = NewDomainError(ErrCodeFileTooLarge, "File exceeds the maximum upload size")
	ErrTrackingNotFound    = NewDomainError(ErrCodeTrackingNotFound, "No tracking information for this code")
	ErrInvalidTrackingCode = NewDomainError(ErrCodeInvalidTrackingCode, "Tracking code format is invalid")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "You do not have access to this resource")
	ErrSelfModification    = NewDomainError(ErrCodeSelfModification, "Administrators cannot demote or delete their own account")
)

// ValidationError reports per-field validation failures keyed by JSON field path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return "validation failed: " + keys[0] + " " + e.Fields[keys[0]]
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
