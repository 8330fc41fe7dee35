package spt

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	canonicaljson "github.com/gibson042/canonicaljson-go"
)

// Issuer implements the shared payment token lifecycle: issuance, lookup with
// lazy expiry enforcement, and the single-use consume transition. Records are
// persisted through the injected [TokenStore]; the issuer itself holds no
// token state beyond the idempotency ledger.
type Issuer struct {
	store    TokenStore
	now      func() time.Time
	newID    func() (string, error)
	livemode bool

	mu   sync.Mutex
	idem map[string]idempotencyRecord
}

type idempotencyRecord struct {
	fingerprint string
	receipt     TokenReceipt
}

// IssuerOption customizes issuer construction.
type IssuerOption func(*Issuer)

// IssuerWithClock provides deterministic time in tests.
func IssuerWithClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = fn
	}
}

// IssuerWithIDGenerator overrides token identifier generation.
func IssuerWithIDGenerator(fn func() (string, error)) IssuerOption {
	return func(i *Issuer) {
		i.newID = fn
	}
}

// IssuerWithLivemode marks issued tokens as live rather than test credentials.
func IssuerWithLivemode() IssuerOption {
	return func(i *Issuer) {
		i.livemode = true
	}
}

// NewIssuer builds an [Issuer] backed by the given store.
func NewIssuer(store TokenStore, opts ...IssuerOption) *Issuer {
	if store == nil {
		panic("issuer: store is required")
	}
	i := &Issuer{
		store: store,
		now:   time.Now,
		newID: newTokenID,
		idem:  make(map[string]idempotencyRecord),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(i)
	}
	return i
}

// Issue validates the request, stores a new active token record, and returns
// the issuance receipt. A request without a payment instrument reference is
// rejected before any storage mutation. When the inbound request carried an
// Idempotency-Key header, replaying the same key with the same parameters
// returns the original receipt; the same key with different parameters fails.
func (i *Issuer) Issue(ctx context.Context, req IssueTokenRequest) (*TokenReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.UsageLimits.Currency == "" {
		req.UsageLimits.Currency = DefaultCurrency
	}
	now := i.now()
	if req.UsageLimits.ExpiresAt != 0 && req.UsageLimits.ExpiresAt <= now.Unix() {
		return nil, NewHTTPError(
			http.StatusBadRequest, InvalidRequest, InvalidExpiry,
			"usage_limits.expires_at must be in the future",
			WithOffendingParam("usage_limits.expires_at"),
		)
	}

	var idemKey, fingerprint string
	if reqCtx := RequestContextFromContext(ctx); reqCtx != nil && reqCtx.IdempotencyKey != "" {
		idemKey = reqCtx.IdempotencyKey
		raw, err := canonicaljson.Marshal(req)
		if err != nil {
			return nil, NewProcessingError(fmt.Sprintf("fingerprint request: %v", err))
		}
		fingerprint = string(raw)

		i.mu.Lock()
		if rec, ok := i.idem[idemKey]; ok {
			i.mu.Unlock()
			if rec.fingerprint != fingerprint {
				return nil, NewHTTPError(
					http.StatusConflict, InvalidRequest, IdempotencyConflict,
					"idempotency key was already used with different parameters",
				)
			}
			receipt := rec.receipt
			return &receipt, nil
		}
		i.mu.Unlock()
	}

	id, err := i.newID()
	if err != nil {
		return nil, NewProcessingError(err.Error())
	}
	token := &IssuedToken{
		ID:            id,
		Object:        ObjectGrantedToken,
		PaymentMethod: req.PaymentMethod,
		UsageLimits:   req.UsageLimits,
		SellerDetails: req.SellerDetails,
		Created:       now.Unix(),
		Status:        TokenStatusActive,
		Livemode:      i.livemode,
	}
	if err := i.store.Put(ctx, token); err != nil {
		return nil, NewProcessingError(fmt.Sprintf("store token: %v", err))
	}

	receipt := &TokenReceipt{
		ID:       id,
		Object:   ObjectIssuedToken,
		Created:  now.Unix(),
		Livemode: i.livemode,
	}
	if idemKey != "" {
		i.mu.Lock()
		i.idem[idemKey] = idempotencyRecord{fingerprint: fingerprint, receipt: *receipt}
		i.mu.Unlock()
	}
	return receipt, nil
}

// Lookup returns the full token record. Expiry is evaluated here, at read
// time: a record whose expires_at has passed still physically exists in the
// store but can no longer be retrieved.
func (i *Issuer) Lookup(ctx context.Context, id string) (*IssuedToken, error) {
	token, err := i.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if token.Status == TokenStatusConsumed {
		return nil, NewHTTPError(
			http.StatusBadRequest, InvalidRequest, TokenConsumed,
			fmt.Sprintf("shared payment token %s has already been consumed", id),
		)
	}
	return token, nil
}

// Consume marks the token spent. The first consume wins; repeated consumes
// and any later lookups fail with the consumed code. The consumed record is
// returned so sellers can reconcile the charge against the token's limits.
func (i *Issuer) Consume(ctx context.Context, id string) (*IssuedToken, error) {
	token, err := i.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if token.Status == TokenStatusConsumed {
		return nil, NewHTTPError(
			http.StatusBadRequest, InvalidRequest, TokenConsumed,
			fmt.Sprintf("shared payment token %s has already been consumed", id),
		)
	}
	token.Status = TokenStatusConsumed
	if err := i.store.Put(ctx, token); err != nil {
		return nil, NewProcessingError(fmt.Sprintf("store token: %v", err))
	}
	return token, nil
}

// ActiveTokens reports how many records the store currently holds.
func (i *Issuer) ActiveTokens(ctx context.Context) (int, error) {
	return i.store.Count(ctx)
}

// fetch loads a record and enforces existence and expiry.
func (i *Issuer) fetch(ctx context.Context, id string) (*IssuedToken, error) {
	token, ok, err := i.store.Get(ctx, id)
	if err != nil {
		return nil, NewProcessingError(fmt.Sprintf("load token: %v", err))
	}
	if !ok {
		return nil, NewHTTPError(
			http.StatusNotFound, InvalidRequest, TokenNotFound,
			fmt.Sprintf("shared payment token %s not found", id),
		)
	}
	if token.UsageLimits.ExpiresAt != 0 && i.now().Unix() > token.UsageLimits.ExpiresAt {
		return nil, NewHTTPError(
			http.StatusBadRequest, InvalidRequest, TokenExpired,
			"shared payment token has expired",
		)
	}
	return token, nil
}
