package spt

import "net/http"

// ErrorType mirrors the error.type field of the issuer's error envelope.
type ErrorType string

const (
	InvalidRequest     ErrorType = "invalid_request"     // Missing or malformed field.
	ProcessingError    ErrorType = "processing_error"    // Internal failure while handling the request.
	ServiceUnavailable ErrorType = "service_unavailable" // Temporary outage or maintenance.
)

// ErrorCode is a machine-readable identifier for the specific failure.
type ErrorCode string

const (
	MissingPaymentMethod ErrorCode = "missing_payment_method" // Issuance without a payment instrument reference.
	TokenNotFound        ErrorCode = "spt_not_found"          // Lookup of an identifier that was never issued.
	TokenExpired         ErrorCode = "spt_expired"            // usage_limits.expires_at has passed.
	TokenConsumed        ErrorCode = "spt_consumed"           // Token was already spent.
	InvalidExpiry        ErrorCode = "invalid_expiry"         // expires_at not strictly in the future.
	DuplicateRequest     ErrorCode = "duplicate_request"      // Safe duplicate with the same idempotency key.
	IdempotencyConflict  ErrorCode = "idempotency_conflict"   // Same idempotency key but different parameters.
	InvalidSignature     ErrorCode = "invalid_signature"      // Signature is missing or does not match the payload.
	SignatureRequired    ErrorCode = "signature_required"     // Signed requests are required but headers were missing.
	StaleTimestamp       ErrorCode = "stale_timestamp"        // Timestamp skew exceeded the allowed window.
	MissingAuthorization ErrorCode = "missing_authorization"  // Authorization header missing.
	InvalidAuthorization ErrorCode = "invalid_authorization"  // Authorization header malformed or API key invalid.
	InternalError        ErrorCode = "internal_error"         // Unexpected processing failure.
)

// Error represents a structured issuer error payload.
type Error struct {
	Type    ErrorType `json:"type"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Param   *string   `json:"param,omitempty"`

	status int `json:"-"`
}

// Error makes *Error satisfy the stdlib error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

type errorOption func(*Error)

// WithOffendingParam sets the JSON path for the field that triggered the error.
func WithOffendingParam(jsonPath string) errorOption {
	return func(er *Error) {
		er.Param = &jsonPath
	}
}

// WithStatusCode overrides the HTTP status code returned to the client.
func WithStatusCode(status int) errorOption {
	return func(er *Error) {
		er.status = status
	}
}

// NewInvalidRequestError builds a Bad Request issuer error payload.
func NewInvalidRequestError(message string, opts ...errorOption) *Error {
	return newError(InvalidRequest, ErrorCode(InvalidRequest), message, append([]errorOption{WithStatusCode(http.StatusBadRequest)}, opts...)...)
}

// NewProcessingError builds an Internal Server Error issuer error payload.
func NewProcessingError(message string, opts ...errorOption) *Error {
	return newError(ProcessingError, InternalError, message, append([]errorOption{WithStatusCode(http.StatusInternalServerError)}, opts...)...)
}

// NewServiceUnavailableError builds a Service Unavailable issuer error payload.
func NewServiceUnavailableError(message string, opts ...errorOption) *Error {
	return newError(ServiceUnavailable, ErrorCode(ServiceUnavailable), message, append([]errorOption{WithStatusCode(http.StatusServiceUnavailable)}, opts...)...)
}

// NewHTTPError allows callers to control the status code explicitly.
func NewHTTPError(status int, typ ErrorType, code ErrorCode, message string, opts ...errorOption) *Error {
	return newError(typ, code, message, append(opts, WithStatusCode(status))...)
}

// newError builds a typed error payload matching the issuer error schema.
func newError(typ ErrorType, code ErrorCode, message string, opts ...errorOption) *Error {
	errPayload := &Error{
		Type:    typ,
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(errPayload)
	}
	return errPayload
}
