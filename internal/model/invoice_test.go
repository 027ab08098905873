package model

import "testing"

func TestInvoiceTransitions(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		want     bool
	}{
		{InvoiceCreated, InvoicePending, true},
		{InvoiceCreated, InvoicePaid, true},
		{InvoiceCreated, InvoiceCancelled, true},
		{InvoicePending, InvoicePending, true},
		{InvoicePending, InvoicePaid, true},
		{InvoicePending, InvoiceCancelled, true},
		{InvoicePending, InvoiceCreated, false},
		{InvoiceCreated, InvoiceCreated, false},
		{InvoicePaid, InvoiceCancelled, false},
		{InvoicePaid, InvoicePending, false},
		{InvoiceCancelled, InvoicePaid, false},
		{InvoiceCancelled, InvoicePending, false},
		{InvoiceStatus("refunded"), InvoicePaid, false},
		{InvoiceCreated, InvoiceStatus("refunded"), false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestInvoiceStatusFlags(t *testing.T) {
	for _, s := range UnpaidStatuses {
		if !s.CanBeUpdated() || s.IsFinal() {
			t.Errorf("%s should be updatable and not final", s)
		}
	}
	for _, s := range []InvoiceStatus{InvoicePaid, InvoiceCancelled} {
		if s.CanBeUpdated() || !s.IsFinal() {
			t.Errorf("%s should be final", s)
		}
	}
}
