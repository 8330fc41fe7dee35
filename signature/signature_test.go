package signature

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHMACVerifierRoundTrip(t *testing.T) {
	t.Parallel()

	key := []byte("shared-secret")
	ts := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	canonical, err := CanonicalizeJSONBody([]byte(`{"b": 2, "a": 1}`))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	material := Material{
		Signature:     Sign(key, ts, canonical),
		Timestamp:     ts,
		CanonicalBody: canonical,
	}
	if err := (HMACVerifier{Key: key}).Verify(context.Background(), material); err != nil {
		t.Fatalf("verify: %v", err)
	}

	material.Signature = Sign([]byte("other-secret"), ts, canonical)
	if err := (HMACVerifier{Key: key}).Verify(context.Background(), material); err == nil {
		t.Fatalf("expected verification failure for wrong key")
	}

	material.Signature = "%%%not-base64url%%%"
	if err := (HMACVerifier{Key: key}).Verify(context.Background(), material); err == nil {
		t.Fatalf("expected verification failure for undecodable signature")
	}
}

func TestCanonicalizeJSONBody(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		raw     string
		want    string
		wantErr bool
	}{
		"object keys are sorted": {
			raw:  `{"b": 2, "a": 1}`,
			want: `{"a":1,"b":2}`,
		},
		"whitespace is insignificant": {
			raw:  "{\n  \"a\": \"x\"\n}",
			want: `{"a":"x"}`,
		},
		"empty body signs as null": {
			raw:  "",
			want: "null",
		},
		"whitespace-only body signs as null": {
			raw:  "  \n\t",
			want: "null",
		},
		"invalid JSON is rejected": {
			raw:     `{"a":`,
			wantErr: true,
		},
		"trailing document is rejected": {
			raw:     `{}{}`,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := CanonicalizeJSONBody([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("canonicalize: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("expected %q got %q", tt.want, got)
			}
		})
	}
}

func TestCanonicalizeJSONBodyEquivalentInputs(t *testing.T) {
	t.Parallel()

	first, err := CanonicalizeJSONBody([]byte(`{"amount": 1200, "currency": "usd"}`))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	second, err := CanonicalizeJSONBody([]byte("{\"currency\":\"usd\",   \"amount\":1200}"))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("equivalent documents must canonicalize identically: %q vs %q", first, second)
	}
}

func TestReadAndBufferBody(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	raw, err := ReadAndBufferBody(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(raw) != `{"a":1}` {
		t.Fatalf("unexpected body %q", raw)
	}

	// The body must still be readable by the next handler.
	again, err := ReadAndBufferBody(r)
	if err != nil {
		t.Fatalf("re-read body: %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Fatalf("expected buffered body %q got %q", raw, again)
	}

	r.Body = nil
	raw, err = ReadAndBufferBody(r)
	if err != nil || raw != nil {
		t.Fatalf("nil body: raw=%q err=%v", raw, err)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	ts, err := ParseTimestamp("2025-09-25T10:30:00Z")
	if err != nil {
		t.Fatalf("parse RFC3339: %v", err)
	}
	if !ts.Equal(time.Date(2025, 9, 25, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", ts)
	}

	if _, err := ParseTimestamp("2025-09-25T10:30:00.123456789Z"); err != nil {
		t.Fatalf("parse RFC3339Nano: %v", err)
	}
	if _, err := ParseTimestamp(""); err == nil {
		t.Fatalf("expected error for empty timestamp")
	}
	if _, err := ParseTimestamp("not-a-time"); err == nil {
		t.Fatalf("expected error for malformed timestamp")
	}
}

func TestBuildSigningPayload(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 10, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	payload := BuildSigningPayload(ts, []byte(`{"a":1}`))
	if string(payload) != `2025-10-01T11:00:00Z.{"a":1}` {
		t.Fatalf("unexpected signing payload %q", payload)
	}
}

func TestAbsDuration(t *testing.T) {
	t.Parallel()

	if AbsDuration(-time.Minute) != time.Minute {
		t.Fatalf("expected negative durations to flip sign")
	}
	if AbsDuration(time.Minute) != time.Minute {
		t.Fatalf("expected positive durations unchanged")
	}
}
