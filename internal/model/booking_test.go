package model

import "testing"

func TestNewPaymentInfo(t *testing.T) {
	lessons := 13
	info := NewPaymentInfo(1_000_001, &lessons)
	if info.FirstInstallment != 500_000 || info.SecondInstallment != 500_001 {
		t.Errorf("installments = %d + %d", info.FirstInstallment, info.SecondInstallment)
	}
	if info.MidpointLesson == nil || *info.MidpointLesson != 6 {
		t.Errorf("midpoint = %v, want 6", info.MidpointLesson)
	}

	info = NewPaymentInfo(0, nil)
	if info.FirstInstallment != 0 || info.MidpointLesson != nil {
		t.Errorf("free group: %+v", info)
	}
}

func TestInvoiceable(t *testing.T) {
	for price, want := range map[int64]bool{
		0:           false,
		1:           false,
		2:           true,
		200_000_000: true,
	} {
		if got := Invoiceable(price); got != want {
			t.Errorf("Invoiceable(%d) = %v, want %v", price, got, want)
		}
	}
}

func TestRepricesInvoices(t *testing.T) {
	tests := []struct {
		old, new int64
		want     bool
	}{
		{200_000_000, 300_000_000, true},
		{0, 300_000_000, true},
		{200_000_000, 200_000_000, false},
		{200_000_000, 0, false},
		{200_000_000, 1, false},
	}
	for _, tt := range tests {
		if got := RepricesInvoices(tt.old, tt.new); got != tt.want {
			t.Errorf("RepricesInvoices(%d, %d) = %v, want %v", tt.old, tt.new, got, tt.want)
		}
	}
}
