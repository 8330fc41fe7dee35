package spt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIVersion is the ACP protocol version sent with every seller backend request.
const APIVersion = "2025-09-29"

// DefaultCurrency applies when an exchange request leaves the currency unset.
const DefaultCurrency = "usd"

// DefaultPaymentProvider names the payment network tokens are issued against.
const DefaultPaymentProvider = "stripe"

const defaultClientTimeout = 30 * time.Second

// Client talks to an ACP-compliant seller backend. All methods send the
// Content-Type, Authorization, and API-Version headers the protocol requires,
// plus a generated Request-Id for tracing. Transport and HTTP failures come
// back as [*TransportError] carrying the status code when one was received.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	newRequestID func() string
}

// ClientOption customizes the seller backend client.
type ClientOption func(*Client)

// ClientWithHTTPClient substitutes the underlying HTTP client.
func ClientWithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// ClientWithTimeout bounds every seller backend call.
func ClientWithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// clientWithRequestIDs provides deterministic Request-Id values in tests.
func clientWithRequestIDs(fn func() string) ClientOption {
	return func(c *Client) {
		c.newRequestID = fn
	}
}

// NewClient builds a seller backend client. The API key is sent as a Bearer
// credential on every request.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: defaultClientTimeout},
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// CreateCheckout opens a new checkout session.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutSessionCreateRequest) (*CheckoutSession, error) {
	url := c.baseURL + "/checkout_sessions"
	return sendRequest[CheckoutSessionCreateRequest, CheckoutSession](c, ctx, http.MethodPost, url, &req, "")
}

// GetCheckout fetches a checkout session, including its totals breakdown.
func (c *Client) GetCheckout(ctx context.Context, checkoutID string) (*CheckoutSession, error) {
	url := fmt.Sprintf("%s/checkout_sessions/%s", c.baseURL, checkoutID)
	return sendRequest[any, CheckoutSession](c, ctx, http.MethodGet, url, nil, "")
}

// UpdateCheckout mutates an in-progress checkout session.
func (c *Client) UpdateCheckout(ctx context.Context, checkoutID string, req CheckoutSessionUpdateRequest) (*CheckoutSession, error) {
	url := fmt.Sprintf("%s/checkout_sessions/%s", c.baseURL, checkoutID)
	return sendRequest[CheckoutSessionUpdateRequest, CheckoutSession](c, ctx, http.MethodPost, url, &req, "")
}

// SubmitCompletion posts the completion request and returns the seller's
// response as-is. The protocol does not reinterpret the seller's completion
// semantics; an Idempotency-Key header protects against duplicate submission.
func (c *Client) SubmitCompletion(ctx context.Context, checkoutID string, req CheckoutSessionCompleteRequest) (*SessionWithOrder, error) {
	url := fmt.Sprintf("%s/checkout_sessions/%s/complete", c.baseURL, checkoutID)
	return sendRequest[CheckoutSessionCompleteRequest, SessionWithOrder](c, ctx, http.MethodPost, url, &req, uuid.NewString())
}

// CancelCheckout cancels an in-progress checkout session.
func (c *Client) CancelCheckout(ctx context.Context, checkoutID string) (*CheckoutSession, error) {
	url := fmt.Sprintf("%s/checkout_sessions/%s/cancel", c.baseURL, checkoutID)
	empty := struct{}{}
	return sendRequest[struct{}, CheckoutSession](c, ctx, http.MethodPost, url, &empty, "")
}

func sendRequest[Req any, Resp any](c *Client, ctx context.Context, method, url string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	op := fmt.Sprintf("%s %s", method, url)

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("API-Version", APIVersion)
	httpReq.Header.Set("Request-Id", c.newRequestID())
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{
			Op:      op,
			Timeout: isTimeout(err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("seller backend returned %s: %s", resp.Status, strings.TrimSpace(string(snippet))),
		}
	}

	var parsed Resp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &parsed, nil
}

// isTimeout classifies request failures that should surface as retryable.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
