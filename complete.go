package spt

import (
	"context"
	"fmt"
	"time"
)

const defaultHopTimeout = 15 * time.Second

// Facilitator drives the checkout-completion protocol: resolve the session's
// authoritative total, exchange the buyer's payment instrument for a
// delegated token capped at exactly that total, and submit the completion
// request to the seller backend. The sequence is strictly sequential with no
// automatic retry; token issuance is not idempotent across attempts.
type Facilitator struct {
	client           *Client
	issuer           TokenIssuer
	provider         string
	sellerNetworkID  string
	sellerExternalID string
	hopTimeout       time.Duration
}

// FacilitatorOption customizes the completion pipeline.
type FacilitatorOption func(*Facilitator)

// FacilitatorWithProvider overrides the payment provider presented to the seller.
func FacilitatorWithProvider(provider string) FacilitatorOption {
	return func(f *Facilitator) {
		f.provider = provider
	}
}

// FacilitatorWithSeller binds issued tokens to a seller identity.
func FacilitatorWithSeller(networkID, externalID string) FacilitatorOption {
	return func(f *Facilitator) {
		f.sellerNetworkID = networkID
		f.sellerExternalID = externalID
	}
}

// FacilitatorWithHopTimeout bounds each of the three network hops separately,
// so a stalled issuer or seller call cannot block the pipeline indefinitely.
func FacilitatorWithHopTimeout(d time.Duration) FacilitatorOption {
	if d <= 0 {
		panic("facilitator: hop timeout must be positive")
	}
	return func(f *Facilitator) {
		f.hopTimeout = d
	}
}

// NewFacilitator builds the completion pipeline over a seller backend client
// and a token issuer.
func NewFacilitator(client *Client, issuer TokenIssuer, opts ...FacilitatorOption) *Facilitator {
	if client == nil {
		panic("facilitator: client is required")
	}
	if issuer == nil {
		panic("facilitator: issuer is required")
	}
	f := &Facilitator{
		client:     client,
		issuer:     issuer,
		provider:   DefaultPaymentProvider,
		hopTimeout: defaultHopTimeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

// CompleteCheckout runs the full completion sequence for one checkout
// session. paymentMethod references the buyer's instrument at the payment
// network; it is exchanged for a delegated token and never reaches the
// seller. A failure on any hop aborts the flow; there is no partial
// completion.
func (f *Facilitator) CompleteCheckout(ctx context.Context, checkoutID, paymentMethod string, billingAddress *Address) (*SessionWithOrder, error) {
	session, err := f.fetchSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	total, err := ResolveTotal(session)
	if err != nil {
		return nil, fmt.Errorf("resolve total for %s: %w", checkoutID, err)
	}

	tokenID, err := f.issueToken(ctx, paymentMethod, total)
	if err != nil {
		return nil, err
	}

	return f.submit(ctx, checkoutID, tokenID, billingAddress)
}

func (f *Facilitator) fetchSession(ctx context.Context, checkoutID string) (*CheckoutSession, error) {
	hopCtx, cancel := context.WithTimeout(ctx, f.hopTimeout)
	defer cancel()
	return f.client.GetCheckout(hopCtx, checkoutID)
}

func (f *Facilitator) issueToken(ctx context.Context, paymentMethod string, total int) (string, error) {
	hopCtx, cancel := context.WithTimeout(ctx, f.hopTimeout)
	defer cancel()
	return f.issuer.IssueDelegatedToken(hopCtx, ExchangeRequest{
		PaymentMethod:    paymentMethod,
		MaxAmount:        total,
		SellerNetworkID:  f.sellerNetworkID,
		SellerExternalID: f.sellerExternalID,
	})
}

func (f *Facilitator) submit(ctx context.Context, checkoutID, tokenID string, billingAddress *Address) (*SessionWithOrder, error) {
	hopCtx, cancel := context.WithTimeout(ctx, f.hopTimeout)
	defer cancel()
	return f.client.SubmitCompletion(hopCtx, checkoutID, CheckoutSessionCompleteRequest{
		PaymentData: PaymentData{
			Token:    tokenID,
			Provider: f.provider,
		},
		BillingAddress: billingAddress,
	})
}
