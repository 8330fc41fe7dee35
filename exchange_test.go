package spt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestIssuerClientIssueDelegatedToken(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	wantExpiry := fixed.Add(TokenTTL).Unix()

	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/shared_payment/issued_tokens" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{}
		for key := range r.PostForm {
			gotForm[key] = r.PostFormValue(key)
		}
		writeJSON(w, http.StatusCreated, TokenReceipt{
			ID:      "spt_0123456789abcdef01234567",
			Object:  ObjectIssuedToken,
			Created: fixed.Unix(),
		})
	}))
	defer server.Close()

	client := NewIssuerClient(server.URL, issuerClientWithClock(func() time.Time { return fixed }))
	tokenID, err := client.IssueDelegatedToken(context.Background(), ExchangeRequest{
		PaymentMethod:    "pm_card_visa",
		MaxAmount:        1200,
		SellerNetworkID:  "internal",
		SellerExternalID: "stripe_test_merchant",
	})
	if err != nil {
		t.Fatalf("issue delegated token: %v", err)
	}
	if tokenID != "spt_0123456789abcdef01234567" {
		t.Fatalf("unexpected token id %s", tokenID)
	}

	want := map[string]string{
		"payment_method":              "pm_card_visa",
		"usage_limits[currency]":      "usd",
		"usage_limits[max_amount]":    "1200",
		"usage_limits[expires_at]":    strconv.FormatInt(wantExpiry, 10),
		"seller_details[network_id]":  "internal",
		"seller_details[external_id]": "stripe_test_merchant",
	}
	for key, wantValue := range want {
		if gotForm[key] != wantValue {
			t.Fatalf("form field %s: expected %q got %q", key, wantValue, gotForm[key])
		}
	}
}

func TestIssuerClientBasicAuth(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "sk_test_123" || pass != "" {
			t.Errorf("unexpected basic auth %q %q %v", user, pass, ok)
		}
		writeJSON(w, http.StatusCreated, TokenReceipt{ID: "spt_abc", Object: ObjectIssuedToken})
	}))
	defer server.Close()

	client := NewIssuerClient(server.URL, IssuerClientWithAPIKey("sk_test_123"))
	if _, err := client.IssueDelegatedToken(context.Background(), ExchangeRequest{PaymentMethod: "pm_card_visa", MaxAmount: 100}); err != nil {
		t.Fatalf("issue delegated token: %v", err)
	}
}

func TestIssuerClientErrors(t *testing.T) {
	t.Parallel()

	t.Run("issuer rejection carries code", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, NewHTTPError(http.StatusBadRequest, InvalidRequest, MissingPaymentMethod, "payment_method is required"))
		}))
		defer server.Close()

		client := NewIssuerClient(server.URL)
		_, err := client.IssueDelegatedToken(context.Background(), ExchangeRequest{MaxAmount: 100})

		var issuanceErr *TokenIssuanceError
		if !errors.As(err, &issuanceErr) {
			t.Fatalf("expected *TokenIssuanceError got %v", err)
		}
		if issuanceErr.Code != string(MissingPaymentMethod) {
			t.Fatalf("expected code missing_payment_method got %q", issuanceErr.Code)
		}
		if issuanceErr.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status 400 got %d", issuanceErr.StatusCode)
		}
	})

	t.Run("missing id field", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, map[string]any{"object": ObjectIssuedToken})
		}))
		defer server.Close()

		client := NewIssuerClient(server.URL)
		_, err := client.IssueDelegatedToken(context.Background(), ExchangeRequest{PaymentMethod: "pm_card_visa"})

		var issuanceErr *TokenIssuanceError
		if !errors.As(err, &issuanceErr) {
			t.Fatalf("expected *TokenIssuanceError got %v", err)
		}
	})

	t.Run("network failure is a transport error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewIssuerClient(server.URL)
		_, err := client.IssueDelegatedToken(context.Background(), ExchangeRequest{PaymentMethod: "pm_card_visa"})

		if _, ok := IsTransportError(err); !ok {
			t.Fatalf("expected *TransportError got %v", err)
		}
	})
}
