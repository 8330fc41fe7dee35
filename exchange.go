package spt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenTTL fixes how far in the future issued tokens expire, measured from
// issuance time regardless of when the checkout was created.
const TokenTTL = 24 * time.Hour

// ExchangeRequest describes the delegated token the facilitator needs: the
// buyer's payment instrument reference, the cap matching the resolved
// checkout total, and the seller identity the token is bound to.
type ExchangeRequest struct {
	PaymentMethod    string
	MaxAmount        int
	Currency         string // defaults to DefaultCurrency when empty
	SellerNetworkID  string
	SellerExternalID string
}

// TokenIssuer exchanges a payment instrument reference for a delegated token
// identifier. Implementations exist for the bundled issuer daemon and the
// live payment network; the completion pipeline only sees this contract.
type TokenIssuer interface {
	IssueDelegatedToken(ctx context.Context, req ExchangeRequest) (string, error)
}

// IssuerClient implements [TokenIssuer] against the shared payment token HTTP
// API. With an API key it authenticates via basic auth the way the live
// payment network expects; without one it targets the mock issuer unsigned.
type IssuerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// IssuerClientOption customizes the issuer client.
type IssuerClientOption func(*IssuerClient)

// IssuerClientWithAPIKey enables live-network basic auth.
func IssuerClientWithAPIKey(key string) IssuerClientOption {
	return func(c *IssuerClient) {
		c.apiKey = key
	}
}

// IssuerClientWithHTTPClient substitutes the underlying HTTP client.
func IssuerClientWithHTTPClient(hc *http.Client) IssuerClientOption {
	return func(c *IssuerClient) {
		c.httpClient = hc
	}
}

// issuerClientWithClock provides deterministic expiry timestamps in tests.
func issuerClientWithClock(fn func() time.Time) IssuerClientOption {
	return func(c *IssuerClient) {
		c.now = fn
	}
}

// NewIssuerClient builds a [TokenIssuer] pointed at the given base URL.
func NewIssuerClient(baseURL string, opts ...IssuerClientOption) *IssuerClient {
	c := &IssuerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// IssueDelegatedToken submits the form-encoded exchange request and returns
// the issuer-assigned token identifier. The expiry is computed here, at
// issuance time, as now plus [TokenTTL] in Unix seconds. Nested fields travel
// as bracketed keys to preserve their structure over the flat form encoding.
func (c *IssuerClient) IssueDelegatedToken(ctx context.Context, req ExchangeRequest) (string, error) {
	currency := req.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	expiresAt := c.now().Add(TokenTTL).Unix()

	form := url.Values{}
	form.Set("payment_method", req.PaymentMethod)
	form.Set("usage_limits[currency]", currency)
	form.Set("usage_limits[max_amount]", strconv.Itoa(req.MaxAmount))
	form.Set("usage_limits[expires_at]", strconv.FormatInt(expiresAt, 10))
	form.Set("seller_details[network_id]", req.SellerNetworkID)
	form.Set("seller_details[external_id]", req.SellerExternalID)

	endpoint := c.baseURL + "/v1/shared_payment/issued_tokens"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.apiKey != "" {
		httpReq.SetBasicAuth(c.apiKey, "")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{
			Op:      "POST " + endpoint,
			Timeout: isTimeout(err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &TransportError{Op: "POST " + endpoint, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		issuanceErr := &TokenIssuanceError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
		var envelope errorEnvelope
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error != nil {
			issuanceErr.Code = string(envelope.Error.Code)
			issuanceErr.Message = envelope.Error.Message
		}
		return "", issuanceErr
	}

	var receipt TokenReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return "", &TokenIssuanceError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unparseable issuer response: %v", err),
		}
	}
	if receipt.ID == "" {
		return "", &TokenIssuanceError{
			StatusCode: resp.StatusCode,
			Message:    "issuer response lacks an id field",
		}
	}
	return receipt.ID, nil
}
