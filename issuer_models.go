package spt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TokenIDPrefix starts every shared payment token identifier.
const TokenIDPrefix = "spt_"

// tokenIDRandomBytes sets the entropy of generated identifiers. 12 bytes is
// 96 bits, enough to make collisions negligible under concurrent issuance.
const tokenIDRandomBytes = 12

// TokenStatus tracks the explicit lifecycle states of an issued token.
// Expiry is derived from usage_limits.expires_at at lookup time, never stored.
type TokenStatus string

const (
	TokenStatusActive   TokenStatus = "active"
	TokenStatusConsumed TokenStatus = "consumed"
)

// Object type discriminators returned by the issuer API.
const (
	ObjectIssuedToken  = "shared_payment.issued_token"
	ObjectGrantedToken = "shared_payment.granted_token"
)

// UsageLimits constrain what a delegated token may authorize.
type UsageLimits struct {
	Currency string `json:"currency" validate:"omitempty,currency"`
	// Max amount, in minor units, the token can be charged for.
	MaxAmount int `json:"max_amount" validate:"gte=0"`
	// Unix timestamp, second precision. Zero means no expiry.
	ExpiresAt int64 `json:"expires_at" validate:"gte=0"`
}

// SellerDetails bind a token to one seller so it cannot be replayed elsewhere.
type SellerDetails struct {
	NetworkID  string `json:"network_id"`
	ExternalID string `json:"external_id"`
}

// IssueTokenRequest asks the issuer to exchange a payment instrument
// reference for a constrained delegated token.
type IssueTokenRequest struct {
	PaymentMethod string        `json:"payment_method" validate:"required"`
	UsageLimits   UsageLimits   `json:"usage_limits"`
	SellerDetails SellerDetails `json:"seller_details"`
}

// Validate runs go-playground/validator rules over the issuance request.
func (r IssueTokenRequest) Validate() error {
	if err := issueValidate.Struct(r); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// TokenReceipt is the issuance response. The full record is only available
// through lookup.
type TokenReceipt struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Created  int64  `json:"created"`
	Livemode bool   `json:"livemode"`
}

// IssuedToken is the full token record stored by the issuer and returned on
// lookup. Read-only after creation apart from the consume transition.
type IssuedToken struct {
	ID            string        `json:"id"`
	Object        string        `json:"object"`
	PaymentMethod string        `json:"payment_method"`
	UsageLimits   UsageLimits   `json:"usage_limits"`
	SellerDetails SellerDetails `json:"seller_details"`
	Created       int64         `json:"created"`
	Status        TokenStatus   `json:"status"`
	Livemode      bool          `json:"livemode"`
}

// newTokenID generates a process-unique identifier: the spt_ prefix followed
// by 24 hex characters of cryptographic randomness.
func newTokenID() (string, error) {
	buf := make([]byte, tokenIDRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	return TokenIDPrefix + hex.EncodeToString(buf), nil
}

var (
	currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)
	issueValidate   = newIssueValidator()
)

func newIssueValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return currencyPattern.MatchString(value)
	}); err != nil {
		panic(err)
	}

	return v
}

// normalizeValidationError converts validator failures into issuer error
// payloads naming the offending field.
func normalizeValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return NewInvalidRequestError(err.Error())
	}
	first := validationErrs[0]
	field := first.Field()
	if first.StructNamespace() != "" {
		parts := strings.SplitN(first.Namespace(), ".", 2)
		if len(parts) == 2 {
			field = parts[1]
		}
	}
	if field == "payment_method" && first.Tag() == "required" {
		return NewHTTPError(
			http.StatusBadRequest, InvalidRequest, MissingPaymentMethod,
			"payment_method is required",
			WithOffendingParam(field),
		)
	}
	return NewInvalidRequestError(
		fmt.Sprintf("%s failed validation on rule %q", field, first.Tag()),
		WithOffendingParam(field),
	)
}
