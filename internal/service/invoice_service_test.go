package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/payment"
)

type recordingPublisher struct {
	events []model.InvoiceEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e model.InvoiceEvent) {
	p.events = append(p.events, e)
}

type fakeGateway struct {
	configured bool
	cancelled  []string
	cancelErr  error
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) CreateInvoice(context.Context, payment.CreateInvoiceParams) (*payment.CreatedInvoice, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) GetInvoice(context.Context, string) (*payment.InvoiceInfo, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) CancelInvoice(_ context.Context, uuid string) error {
	g.cancelled = append(g.cancelled, uuid)
	return g.cancelErr
}

func newTestInvoiceService(gw *fakeGateway, pub *recordingPublisher) *InvoiceService {
	cfg := &config.Config{
		Location: time.UTC,
		PageSize: 20,
		Multicard: config.MulticardConfig{
			StoreID:    "6",
			Secret:     "s3cret",
			VerifySign: true,
		},
	}
	s := NewInvoiceService(nil, nil, gw, pub, cfg, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestHandleCallbackRejects(t *testing.T) {
	s := newTestInvoiceService(&fakeGateway{}, &recordingPublisher{})
	ctx := context.Background()

	res := s.HandleCallback(ctx, payment.Notification{UUID: "u-1"})
	if res.Success || res.Message != "Missing required parameters" {
		t.Errorf("missing invoice_id: %+v", res)
	}

	res = s.HandleCallback(ctx, payment.Notification{UUID: "u-1", InvoiceID: "42", Amount: 100, Sign: "deadbeef"})
	if res.Success || res.Message != "Invalid signature" {
		t.Errorf("bad sign: %+v", res)
	}
}

func TestHandleCallbackIgnoresNonSuccess(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestInvoiceService(&fakeGateway{}, pub)

	n := payment.Notification{UUID: "u-1", InvoiceID: "42", Amount: 100, Status: payment.StatusError}
	n.Sign = payment.CallbackSign("6", "42", 100, "s3cret")

	res := s.HandleCallback(context.Background(), n)
	if !res.Success || res.Message != "Callback received" {
		t.Errorf("error status should be acknowledged: %+v", res)
	}
	if len(pub.events) != 0 {
		t.Errorf("no event expected, got %d", len(pub.events))
	}
}

func TestHandleWebhookRejects(t *testing.T) {
	s := newTestInvoiceService(&fakeGateway{}, &recordingPublisher{})
	ctx := context.Background()

	res := s.HandleWebhook(ctx, payment.Notification{InvoiceID: "42"})
	if res.Success {
		t.Errorf("missing uuid should fail: %+v", res)
	}

	// A callback signature is not valid for a webhook.
	n := payment.Notification{UUID: "u-1", InvoiceID: "42", Amount: 100, Status: payment.StatusSuccess}
	n.Sign = payment.CallbackSign("6", "42", 100, "s3cret")
	if res := s.HandleWebhook(ctx, n); res.Success || res.Message != "Invalid signature" {
		t.Errorf("callback sign on webhook: %+v", res)
	}
}

func TestHandleWebhookRevertIsIgnored(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestInvoiceService(&fakeGateway{}, pub)

	n := payment.Notification{UUID: "u-1", InvoiceID: "42", Amount: 100, Status: payment.StatusRevert}
	n.Sign = payment.WebhookSign("u-1", "42", 100, "s3cret")

	res := s.HandleWebhook(context.Background(), n)
	if !res.Success || res.Message != "Webhook received" {
		t.Errorf("revert should be acknowledged: %+v", res)
	}
	if len(pub.events) != 0 {
		t.Error("revert must not publish")
	}
}

func TestCancelledByBooking(t *testing.T) {
	gw := &fakeGateway{configured: true, cancelErr: errors.New("gateway down")}
	pub := &recordingPublisher{}
	s := newTestInvoiceService(gw, pub)

	uuid := "u-7"
	s.CancelledByBooking(context.Background(), []model.Invoice{
		{ID: 1, StudentID: 5, GroupID: 9, Amount: 500, Status: model.InvoiceCreated},
		{ID: 2, StudentID: 5, GroupID: 9, Amount: 500, Status: model.InvoicePending, MulticardUUID: &uuid},
	})

	if len(pub.events) != 2 {
		t.Fatalf("events = %d, want 2", len(pub.events))
	}
	if e := pub.events[1]; e.From != model.InvoicePending || e.To != model.InvoiceCancelled || e.Source != model.EventSourceBooking {
		t.Errorf("event = %+v", e)
	}
	if len(gw.cancelled) != 1 || gw.cancelled[0] != uuid {
		t.Errorf("gateway cancellations = %v, want only %s", gw.cancelled, uuid)
	}
}

func TestCheckPayable(t *testing.T) {
	if err := checkPayable(model.InvoiceCreated); err != nil {
		t.Errorf("created: %v", err)
	}
	if err := checkPayable(model.InvoicePending); err != nil {
		t.Errorf("pending: %v", err)
	}
	if err := checkPayable(model.InvoicePaid); !errors.Is(err, ErrInvoicePaid) {
		t.Errorf("paid: %v", err)
	}
	if err := checkPayable(model.InvoiceCancelled); !errors.Is(err, ErrInvoiceCancelled) {
		t.Errorf("cancelled: %v", err)
	}
}

func TestCheckCheckout(t *testing.T) {
	tests := []struct {
		inv  model.Invoice
		want error
	}{
		{model.Invoice{Status: model.InvoiceCreated, Amount: 100_000}, nil},
		{model.Invoice{Status: model.InvoicePending, Amount: 1}, nil},
		{model.Invoice{Status: model.InvoiceCreated, Amount: 0}, ErrNothingToPay},
		{model.Invoice{Status: model.InvoicePaid, Amount: 0}, ErrInvoicePaid},
		{model.Invoice{Status: model.InvoiceCancelled, Amount: 100_000}, ErrInvoiceCancelled},
	}
	for _, tt := range tests {
		if err := checkCheckout(&tt.inv); !errors.Is(err, tt.want) {
			t.Errorf("%s/%d: err = %v, want %v", tt.inv.Status, tt.inv.Amount, err, tt.want)
		}
	}
}
