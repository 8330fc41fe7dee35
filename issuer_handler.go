package spt

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// IssuerHandler exposes the shared payment token lifecycle over net/http.
type IssuerHandler struct {
	issuer *Issuer
	mux    *http.ServeMux
	cfg    config
}

// NewIssuerHandler wires the token issuer routes to the provided [Issuer].
func NewIssuerHandler(issuer *Issuer, opts ...Option) *IssuerHandler {
	if issuer == nil {
		panic("issuer: issuer is required")
	}
	cfg := config{
		maxClockSkew: 5 * time.Minute,
		clock:        time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.requireSignedRequests && cfg.signatureVerifier == nil {
		panic("issuer: signature verifier required when signed requests are enforced")
	}
	h := &IssuerHandler{
		issuer: issuer,
		mux:    http.NewServeMux(),
		cfg:    cfg,
	}
	var protected []Middleware
	if cfg.authenticator != nil {
		protected = append(protected, h.authenticationMiddleware)
	}
	protected = append(protected, cfg.middleware...)

	// The signature middleware canonicalizes JSON bodies, so it guards only
	// the lookup and consume routes; the issuance route is form-encoded.
	signed := protected
	if mw := newSignatureMiddleware(signatureMiddlewareConfig{
		Verifier:      cfg.signatureVerifier,
		RequireSigned: cfg.requireSignedRequests,
		MaxClockSkew:  cfg.maxClockSkew,
		Clock:         cfg.clock,
	}); mw != nil {
		signed = append([]Middleware{Middleware(mw)}, protected...)
	}

	h.mux.HandleFunc("POST /v1/shared_payment/issued_tokens", applyMiddleware(h.handleIssue, protected...))
	h.mux.HandleFunc("GET /v1/shared_payment/granted_tokens/{id}", applyMiddleware(h.handleLookup, signed...))
	h.mux.HandleFunc("POST /v1/shared_payment/granted_tokens/{id}/consume", applyMiddleware(h.handleConsume, signed...))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

// ServeHTTP satisfies http.Handler.
func (h *IssuerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestCtx := requestContextFromRequest(r)
	ctx := contextWithRequestContext(r.Context(), requestCtx)
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

func (h *IssuerHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	req, err := decodeIssueForm(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	receipt, err := h.issuer.Issue(r.Context(), *req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *IssuerHandler) handleLookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSONError(w, NewInvalidRequestError("token id is required"))
		return
	}
	token, err := h.issuer.Lookup(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *IssuerHandler) handleConsume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSONError(w, NewInvalidRequestError("token id is required"))
		return
	}
	token, err := h.issuer.Consume(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *IssuerHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.issuer.ActiveTokens(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       "sptd",
		"active_tokens": count,
	})
}

// decodeIssueForm maps the bracketed form keys of the issuance wire format
// onto [IssueTokenRequest].
func decodeIssueForm(r *http.Request) (*IssueTokenRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, NewInvalidRequestError(fmt.Sprintf("malformed form body: %v", err))
	}
	req := IssueTokenRequest{
		PaymentMethod: r.PostFormValue("payment_method"),
		UsageLimits: UsageLimits{
			Currency: r.PostFormValue("usage_limits[currency]"),
		},
		SellerDetails: SellerDetails{
			NetworkID:  r.PostFormValue("seller_details[network_id]"),
			ExternalID: r.PostFormValue("seller_details[external_id]"),
		},
	}
	if raw := r.PostFormValue("usage_limits[max_amount]"); raw != "" {
		amount, err := strconv.Atoi(raw)
		if err != nil {
			return nil, NewInvalidRequestError(
				"usage_limits[max_amount] must be an integer",
				WithOffendingParam("usage_limits.max_amount"),
			)
		}
		req.UsageLimits.MaxAmount = amount
	}
	if raw := r.PostFormValue("usage_limits[expires_at]"); raw != "" {
		expiresAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, NewInvalidRequestError(
				"usage_limits[expires_at] must be a Unix timestamp",
				WithOffendingParam("usage_limits.expires_at"),
			)
		}
		req.UsageLimits.ExpiresAt = expiresAt
	}
	return &req, nil
}
