package spt

import (
	"errors"
	"fmt"
)

// ErrTotalNotFound reports a checkout session whose totals breakdown carries
// no entry of type "total". Completion cannot proceed without one.
var ErrTotalNotFound = errors.New("total amount not found in checkout session")

// TokenIssuanceError reports that the token issuer rejected an exchange or
// returned an unusable response. It is definitive: the completion flow aborts.
type TokenIssuanceError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *TokenIssuanceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token issuance failed [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("token issuance failed: %s (status: %d)", e.Message, e.StatusCode)
}

// TransportError reports an underlying network or HTTP failure on either hop.
// StatusCode is zero when the request never produced a response.
type TransportError struct {
	Op         string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying: timeouts and
// server-side statuses, never definitive client rejections.
func (e *TransportError) Retryable() bool {
	return e.Timeout || e.StatusCode >= 500
}

// IsTransportError unwraps err into a *TransportError when possible.
func IsTransportError(err error) (*TransportError, bool) {
	var transportErr *TransportError
	ok := errors.As(err, &transportErr)
	return transportErr, ok
}
