package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
)

type fakeGateway struct {
	logins     atomic.Int32
	rejectNext atomic.Bool
	lastBody   map[string]any
}

func (g *fakeGateway) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["application_id"] != "app" || body["secret"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false}`))
			return
		}
		n := g.logins.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + string(rune('0'+n)), "expiry": "24 hours"})
	})
	mux.HandleFunc("/payment/invoice", func(w http.ResponseWriter, r *http.Request) {
		if g.rejectNext.Swap(false) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") == "" {
			t.Errorf("missing authorization header")
		}
		g.lastBody = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&g.lastBody)
		_, _ = w.Write([]byte(`{"success":true,"data":{"uuid":"u-1","checkout_url":"https://pay/u-1","short_link":"https://s/u-1"}}`))
	})
	mux.HandleFunc("/payment/invoice/u-1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"data":{"uuid":"u-1","invoice_id":"42","payment":{"status":"success","ps":"uzcard","card_pan":"8600****1234"}}}`))
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"success":true,"data":null}`))
		}
	})
	mux.HandleFunc("/payment/invoice/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"ERROR_NOT_FOUND","details":"Invoice not found"}}`))
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{}
	srv := httptest.NewServer(gw.handler(t))
	t.Cleanup(srv.Close)

	cfg := config.MulticardConfig{
		BaseURL:       srv.URL,
		ApplicationID: "app",
		Secret:        "secret",
		StoreID:       "7",
		CallbackURL:   "https://api.example.com/callback",
		ReturnURL:     "https://example.com/ok",
		Timeout:       5 * time.Second,
	}
	return NewClient(cfg, NewMemoryTokenStore(), zerolog.Nop()), gw
}

func TestCreateInvoice(t *testing.T) {
	c, gw := newTestClient(t)

	out, err := c.CreateInvoice(context.Background(), CreateInvoiceParams{
		InvoiceID: "42",
		Amount:    50000000,
		Lang:      "uz",
		SMS:       "998901234567",
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if out.UUID != "u-1" || out.CheckoutURL != "https://pay/u-1" {
		t.Errorf("unexpected result %+v", out)
	}
	if gw.lastBody["store_id"].(float64) != 7 {
		t.Errorf("store_id = %v", gw.lastBody["store_id"])
	}
	if gw.lastBody["amount"].(float64) != 50000000 {
		t.Errorf("amount = %v", gw.lastBody["amount"])
	}
	if gw.lastBody["return_url"] != "https://example.com/ok" {
		t.Errorf("return_url = %v", gw.lastBody["return_url"])
	}
	if _, ok := gw.lastBody["return_error_url"]; ok {
		t.Errorf("return_error_url should be omitted when unset")
	}
	if gw.lastBody["sms"] != "998901234567" {
		t.Errorf("sms = %v", gw.lastBody["sms"])
	}
}

func TestTokenIsCachedAndRefreshedOn401(t *testing.T) {
	c, gw := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.CreateInvoice(ctx, CreateInvoiceParams{InvoiceID: "1", Amount: 100}); err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
	}
	if got := gw.logins.Load(); got != 1 {
		t.Fatalf("logins = %d, want 1 (token should be cached)", got)
	}

	gw.rejectNext.Store(true)
	if _, err := c.CreateInvoice(ctx, CreateInvoiceParams{InvoiceID: "1", Amount: 100}); err != nil {
		t.Fatalf("CreateInvoice after 401: %v", err)
	}
	if got := gw.logins.Load(); got != 2 {
		t.Fatalf("logins = %d, want 2 after token rejection", got)
	}
}

func TestGetAndCancelInvoice(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	info, err := c.GetInvoice(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if info.Payment.Status != StatusSuccess || info.Payment.PS != "uzcard" {
		t.Errorf("unexpected info %+v", info)
	}

	if err := c.CancelInvoice(ctx, "u-1"); err != nil {
		t.Fatalf("CancelInvoice: %v", err)
	}

	_, err = c.GetInvoice(ctx, "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "ERROR_NOT_FOUND" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.MulticardConfig{}, NewMemoryTokenStore(), zerolog.Nop())
	if _, err := c.CreateInvoice(context.Background(), CreateInvoiceParams{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
