package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/payment"
	"github.com/bimuz/bimuz-backend/internal/repository"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestFailMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{"wrapped not found", fmt.Errorf("load group: %w", repository.ErrNotFound), http.StatusNotFound, response.ErrNotFound},
		{"referenced", repository.ErrReferenced, http.StatusConflict, response.ErrDependencyExists},
		{"group full", service.ErrGroupFull, http.StatusConflict, response.ErrGroupFull},
		{"paid invoice", service.ErrInvoicePaid, http.StatusConflict, response.ErrInvoicePaid},
		{"gateway down", service.ErrGatewayUnavailable, http.StatusBadGateway, response.ErrGateway},
		{"bad month", fmt.Errorf("%w: %q", model.ErrInvalidMonth, "2025-13"), http.StatusBadRequest, response.ErrInvalidMonth},
		{"duplicate", repository.ErrDuplicate, http.StatusConflict, response.ErrConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			fail(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			env := decode(t, w)
			if env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.code)
			}
			if wantLogged := tt.status == http.StatusInternalServerError; wantLogged != (len(c.Errors) == 1) {
				t.Errorf("c.Errors = %v", c.Errors)
			}
		})
	}
}

func TestFailDuplicateNamesField(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	fail(c, fmt.Errorf("create student: %w", repository.ErrDuplicatePhone))

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	env := decode(t, w)
	if _, ok := env.Error.Fields["phone"]; !ok {
		t.Errorf("fields = %v, want phone", env.Error.Fields)
	}
}

func TestFailBookingRejectedCarriesAlternatives(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	fail(c, &service.BookingRejectedError{
		Err:          service.ErrBookingClosed,
		Alternatives: []model.GroupView{{Group: model.Group{ID: 7}}},
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	env := decode(t, w)
	if env.Error.Code != response.ErrBookingClosed {
		t.Errorf("code = %s", env.Error.Code)
	}
	var data struct {
		AlternativeGroups []struct {
			ID int64 `json:"id"`
		} `json:"alternative_groups"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.AlternativeGroups) != 1 || data.AlternativeGroups[0].ID != 7 {
		t.Errorf("alternative_groups = %+v", data.AlternativeGroups)
	}
}

func TestParseID(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-4", ""} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		if _, ok := parseID(c, "id"); ok {
			t.Errorf("parseID(%q) accepted", raw)
		}
		if w.Code != http.StatusBadRequest {
			t.Errorf("parseID(%q) status = %d", raw, w.Code)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	if id, ok := parseID(c, "id"); !ok || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, ok)
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		query         string
		page, perPage int
	}{
		{"", 1, 0},
		{"page=3&per_page=20", 3, 20},
		{"page=-1&per_page=1000", 1, 100},
		{"page=x&per_page=-5", 1, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

		page, perPage := pageParams(c)
		if page != tt.page || perPage != tt.perPage {
			t.Errorf("pageParams(%q) = %d, %d, want %d, %d", tt.query, page, perPage, tt.page, tt.perPage)
		}
	}
}

func TestOptionalQueryParams(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?group_id=5&is_active=false", nil)

	id, ok := optionalID(c, "group_id")
	if !ok || id == nil || *id != 5 {
		t.Errorf("optionalID = %v, %v", id, ok)
	}
	missing, ok := optionalID(c, "mentor_id")
	if !ok || missing != nil {
		t.Errorf("missing optionalID = %v, %v", missing, ok)
	}
	b, ok := optionalBool(c, "is_active")
	if !ok || b == nil || *b {
		t.Errorf("optionalBool = %v, %v", b, ok)
	}

	w := httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?group_id=seven", nil)
	if _, ok := optionalID(c, "group_id"); ok || w.Code != http.StatusBadRequest {
		t.Errorf("malformed group_id accepted, status %d", w.Code)
	}
}

func TestListFiltersAreValidatedBeforeLoading(t *testing.T) {
	r := gin.New()
	students := NewStudentHandler(nil, 20)
	invoices := NewInvoiceHandler(nil, 20)
	reports := NewReportHandler(nil)
	r.GET("/students", students.ListStudents)
	r.GET("/invoices", invoices.ListInvoices)
	r.GET("/reports", reports.GetMonthlyReport)

	tests := []struct {
		path string
		code response.ErrCode
	}{
		{"/students?source=tiktok", response.ErrValidation},
		{"/invoices?status=refunded", response.ErrValidation},
		{"/invoices?ordering=student_name", response.ErrValidation},
		{"/reports?month=2025-13", response.ErrInvalidMonth},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", tt.path, w.Code)
			continue
		}
		if env := decode(t, w); env.Error.Code != tt.code {
			t.Errorf("%s: code = %s, want %s", tt.path, env.Error.Code, tt.code)
		}
	}
}

func notificationRouter() *gin.Engine {
	cfg := &config.Config{Multicard: config.MulticardConfig{StoreID: "6", Secret: "s3cret", VerifySign: true}}
	svc := service.NewInvoiceService(nil, nil, nil, nil, cfg, zerolog.Nop())
	h := NewInvoiceHandler(svc, 20)

	r := gin.New()
	r.GET("/callback", h.MulticardCallback)
	r.POST("/callback", h.MulticardCallback)
	r.POST("/webhook", h.MulticardWebhook)
	return r
}

func notify(t *testing.T, r *gin.Engine, req *http.Request) service.NotificationResult {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, gateway notifications always get 200", w.Code)
	}
	var res service.NotificationResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestMulticardCallback(t *testing.T) {
	r := notificationRouter()

	res := notify(t, r, httptest.NewRequest(http.MethodGet, "/callback?uuid=u-1", nil))
	if res.Success || res.Message != "Missing required parameters" {
		t.Errorf("missing invoice_id: %+v", res)
	}

	body := `{"uuid":"u-1","invoice_id":"INV-1","amount":100000,"sign":"deadbeef"}`
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res = notify(t, r, req)
	if res.Success || res.Message != "Invalid signature" {
		t.Errorf("bad sign: %+v", res)
	}

	form := url.Values{
		"uuid":       {"u-1"},
		"invoice_id": {"INV-1"},
		"amount":     {"100000"},
		"status":     {"error"},
		"sign":       {payment.CallbackSign("6", "INV-1", 100000, "s3cret")},
	}
	req = httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res = notify(t, r, req)
	if !res.Success || res.Message != "Callback received" {
		t.Errorf("non-success callback: %+v", res)
	}

	req = httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader("amount=lots"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res = notify(t, r, req)
	if res.Success || res.Message != "Invalid payload" {
		t.Errorf("malformed callback: %+v", res)
	}
}

func TestMulticardWebhookIgnoresRevert(t *testing.T) {
	r := notificationRouter()

	body, _ := json.Marshal(payment.Notification{
		UUID:      "u-2",
		InvoiceID: "INV-2",
		Amount:    50000,
		Status:    payment.StatusRevert,
		Sign:      payment.WebhookSign("u-2", "INV-2", 50000, "s3cret"),
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	res := notify(t, r, req)
	if !res.Success || res.Message != "Webhook received" {
		t.Errorf("revert webhook: %+v", res)
	}
}

func TestEventVisible(t *testing.T) {
	mentor, other := int64(3), int64(4)
	ev := model.InvoiceEvent{InvoiceID: 1, MentorID: &mentor}

	if !eventVisible(ev, service.Scope{}) {
		t.Error("unscoped staff see every event")
	}
	if !eventVisible(ev, service.Scope{MentorID: &mentor}) {
		t.Error("mentor sees own group's event")
	}
	if eventVisible(ev, service.Scope{MentorID: &other}) {
		t.Error("mentor sees another mentor's event")
	}
	if eventVisible(model.InvoiceEvent{InvoiceID: 2}, service.Scope{MentorID: &mentor}) {
		t.Error("mentor sees mentorless event")
	}
}
