package spt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestRequestContextFromRequest(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/v1/shared_payment/issued_tokens", nil)
	r.Header.Set("Authorization", "  Bearer facilitator_token ")
	r.Header.Set("User-Agent", "ChatGPT/2.0 (Mac OS X 15.0.1; arm64; build 0)")
	r.Header.Set("Idempotency-Key", "idempotency_key_123")
	r.Header.Set("Request-Id", "request_id_123")
	r.Header.Set("Signature", "eyJtZX")
	r.Header.Set("Timestamp", "2025-09-25T10:30:00Z")

	got := requestContextFromRequest(r)
	want := &RequestContext{
		Authorization:  "Bearer facilitator_token",
		UserAgent:      "ChatGPT/2.0 (Mac OS X 15.0.1; arm64; build 0)",
		IdempotencyKey: "idempotency_key_123",
		RequestID:      "request_id_123",
		Signature:      "eyJtZX",
		Timestamp:      "2025-09-25T10:30:00Z",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected request context:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestRequestContextRoundTrip(t *testing.T) {
	t.Parallel()

	requestCtx := &RequestContext{IdempotencyKey: "idempotency_key_123"}
	ctx := contextWithRequestContext(context.Background(), requestCtx)
	if got := RequestContextFromContext(ctx); got != requestCtx {
		t.Fatalf("expected stored request context, got %+v", got)
	}
}

func TestRequestContextFromContextEmpty(t *testing.T) {
	t.Parallel()

	if got := RequestContextFromContext(context.Background()); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := RequestContextFromContext(nil); got != nil { //nolint:staticcheck
		t.Fatalf("expected nil for nil context, got %+v", got)
	}
	if ctx := contextWithRequestContext(context.Background(), nil); RequestContextFromContext(ctx) != nil {
		t.Fatalf("nil request context must not be stored")
	}
}
