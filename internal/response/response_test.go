package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"", false},
		{"3f1c2a7e-0b9d-4c55-8a44-0e6a9f2d1b77", true},
		{"edge.proxy_42", true},
		{"has space", false},
		{"newline\ninjected", false},
		{strings.Repeat("a", maxRequestIDLen), true},
		{strings.Repeat("a", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		if got := validRequestID(tt.id); got != tt.want {
			t.Errorf("validRequestID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func serve(t *testing.T, header string, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderRequestID, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return w, body
}

func TestRequestIDIsEchoed(t *testing.T) {
	w, body := serve(t, "trace-123", func(c *gin.Context) { Success(c, http.StatusOK, "ok") })

	if got := w.Header().Get(HeaderRequestID); got != "trace-123" {
		t.Errorf("header = %q, want trace-123", got)
	}
	if body.Metadata.RequestID != "trace-123" {
		t.Errorf("metadata request_id = %q, want trace-123", body.Metadata.RequestID)
	}
}

func TestMalformedRequestIDIsReplaced(t *testing.T) {
	w, body := serve(t, "bad id!", func(c *gin.Context) { Success(c, http.StatusOK, nil) })

	got := w.Header().Get(HeaderRequestID)
	if got == "" || got == "bad id!" {
		t.Fatalf("header = %q, want a generated id", got)
	}
	if body.Metadata.RequestID != got {
		t.Errorf("metadata request_id = %q, header = %q", body.Metadata.RequestID, got)
	}
}

func TestFailEnvelope(t *testing.T) {
	w, body := serve(t, "", func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"phone": "phone is required"})
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body.Error == nil || body.Error.Code != ErrValidation {
		t.Fatalf("error = %+v", body.Error)
	}
	if body.Error.Message != GetMessage(ErrValidation) {
		t.Errorf("message = %q", body.Error.Message)
	}
	if body.Error.Fields["phone"] == "" {
		t.Errorf("fields = %v", body.Error.Fields)
	}
	if body.Data != nil {
		t.Errorf("data = %v, want null", body.Data)
	}
}

func TestFailWithDataKeepsPayload(t *testing.T) {
	_, body := serve(t, "", func(c *gin.Context) {
		FailWithData(c, http.StatusConflict, ErrGroupFull, []int{7, 9})
	})

	alts, ok := body.Data.([]interface{})
	if !ok || len(alts) != 2 {
		t.Fatalf("data = %#v, want two alternatives", body.Data)
	}
	if body.Error == nil || body.Error.Code != ErrGroupFull {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, perPage, total, wantPages int
	}{
		{1, 20, 0, 0},
		{1, 20, 20, 1},
		{2, 20, 21, 2},
		{1, 0, 5, 0},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.perPage, tt.total)
		if p.TotalPages != tt.wantPages {
			t.Errorf("NewPagination(%d, %d, %d).TotalPages = %d, want %d",
				tt.page, tt.perPage, tt.total, p.TotalPages, tt.wantPages)
		}
	}
}
