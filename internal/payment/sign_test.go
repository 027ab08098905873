package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/bimuz/bimuz-backend/internal/model"
)

func TestSignatures(t *testing.T) {
	// md5("7" + "42" + "100000" + "secret")
	sign := CallbackSign("7", "42", 100000, "secret")
	if len(sign) != 32 {
		t.Fatalf("md5 hex length = %d", len(sign))
	}
	if !VerifyCallbackSign("7", "42", 100000, "secret", strings.ToUpper(sign)) {
		t.Error("upper-case signature should verify")
	}
	if VerifyCallbackSign("7", "42", 100001, "secret", sign) {
		t.Error("signature must depend on amount")
	}

	wsign := WebhookSign("u-1", "42", 100000, "secret")
	if len(wsign) != 40 {
		t.Fatalf("sha1 hex length = %d", len(wsign))
	}
	if !VerifyWebhookSign("u-1", "42", 100000, "secret", wsign) {
		t.Error("webhook signature should verify")
	}
	if VerifyWebhookSign("u-2", "42", 100000, "secret", wsign) {
		t.Error("signature must depend on uuid")
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		in   string
		want model.InvoiceStatus
		ok   bool
	}{
		{"draft", model.InvoiceCreated, true},
		{"progress", model.InvoicePending, true},
		{"success", model.InvoicePaid, true},
		{"PAID", model.InvoicePaid, true},
		{"error", model.InvoiceCancelled, true},
		{"revert", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MapStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MapStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParsePaymentTime(t *testing.T) {
	loc := time.FixedZone("UZT", 5*60*60)

	got := ParsePaymentTime("2025-03-04 10:20:30", loc)
	want := time.Date(2025, 3, 4, 10, 20, 30, 0, loc)
	if !got.Equal(want) {
		t.Errorf("plain layout: got %v, want %v", got, want)
	}

	got = ParsePaymentTime("2025-03-04T05:20:30Z", loc)
	if !got.Equal(want) {
		t.Errorf("RFC3339: got %v, want %v", got, want)
	}

	if !ParsePaymentTime("yesterday", loc).IsZero() {
		t.Error("garbage should parse to zero time")
	}
}

func TestSMSPhone(t *testing.T) {
	tests := map[string]string{
		"+998 90 123-45-67": "998901234567",
		"998901234567":      "998901234567",
		"+7 900 123 45 67":  "",
		"901234567":         "",
	}
	for in, want := range tests {
		if got := SMSPhone(in); got != want {
			t.Errorf("SMSPhone(%q) = %q, want %q", in, got, want)
		}
	}
}
