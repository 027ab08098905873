package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/service"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuth() *service.AuthService {
	cfg := &config.Config{JWTSecret: testSecret, JWTAccessExpiry: time.Hour, JWTRefreshExpiry: time.Hour}
	return service.NewAuthService(cfg, nil, nil, nil, zerolog.Nop())
}

func token(t *testing.T, typ service.TokenType, use service.TokenUse, role model.Role, ttl time.Duration) string {
	t.Helper()
	claims := service.Claims{
		TokenType:   typ,
		TokenUse:    use,
		UserID:      11,
		Role:        role,
		Permissions: model.PermissionsFor(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-" + string(typ),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func serve(r *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRequireEmployeeJWT(t *testing.T) {
	r := gin.New()
	r.GET("/staff", RequireEmployeeJWT(testAuth()), ok)

	tests := []struct {
		name   string
		bearer string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired", token(t, service.TokenTypeEmployee, service.TokenUseAccess, model.RoleDirector, -time.Minute), http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"refresh token", token(t, service.TokenTypeEmployee, service.TokenUseRefresh, model.RoleDirector, time.Hour), http.StatusUnauthorized, "TOKEN_INVALID"},
		{"student token", token(t, service.TokenTypeStudent, service.TokenUseAccess, "", time.Hour), http.StatusForbidden, "EMPLOYEE_ACCESS_ONLY"},
		{"employee token", token(t, service.TokenTypeEmployee, service.TokenUseAccess, model.RoleDirector, time.Hour), http.StatusOK, ""},
	}
	for _, tt := range tests {
		w := serve(r, http.MethodGet, "/staff", tt.bearer)
		if w.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.status)
		}
		if tt.code != "" && !strings.Contains(w.Body.String(), tt.code) {
			t.Errorf("%s: body %s lacks %s", tt.name, w.Body.String(), tt.code)
		}
	}
}

func TestRequireStudentJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireStudentJWT(testAuth()), func(c *gin.Context) {
		c.String(http.StatusOK, "%d", GetClaims(c).UserID)
	})

	w := serve(r, http.MethodGet, "/me", token(t, service.TokenTypeStudent, service.TokenUseAccess, "", time.Hour))
	if w.Code != http.StatusOK || w.Body.String() != "11" {
		t.Errorf("student: %d %s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodGet, "/me", token(t, service.TokenTypeEmployee, service.TokenUseAccess, model.RoleDirector, time.Hour))
	if w.Code != http.StatusForbidden {
		t.Errorf("employee on student route: %d", w.Code)
	}
}

func TestRequireEmployeeWSAuth(t *testing.T) {
	r := gin.New()
	r.GET("/ws", RequireEmployeeWSAuth(testAuth()), ok)

	if w := serve(r, http.MethodGet, "/ws", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", w.Code)
	}
	tok := token(t, service.TokenTypeEmployee, service.TokenUseAccess, model.RoleAccountant, time.Hour)
	if w := serve(r, http.MethodGet, "/ws?token="+tok, ""); w.Code != http.StatusOK {
		t.Errorf("query token: %d %s", w.Code, w.Body.String())
	}
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.POST("/payroll", RequireEmployeeJWT(testAuth()), RequirePermission(model.PermissionPayrollWrite), ok)
	r.GET("/open", RequirePermission(model.PermissionReportsRead), ok)

	for role, want := range map[model.Role]int{
		model.RoleAccountant:    http.StatusOK,
		model.RoleDirector:      http.StatusOK,
		model.RoleDeveloper:     http.StatusForbidden,
		model.RoleAdministrator: http.StatusForbidden,
		model.RoleMentor:        http.StatusForbidden,
	} {
		w := serve(r, http.MethodPost, "/payroll", token(t, service.TokenTypeEmployee, service.TokenUseAccess, role, time.Hour))
		if w.Code != want {
			t.Errorf("%s: status = %d, want %d", role, w.Code, want)
		}
	}

	if w := serve(r, http.MethodGet, "/open", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("permission without claims: %d", w.Code)
	}
}

type fakeRevocations struct {
	revoked     map[string]bool
	generations map[int64]int64
	err         error
}

func (f fakeRevocations) IsAccessRevoked(_ context.Context, claims *service.Claims) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[claims.ID] || claims.Superseded(f.generations[claims.UserID]), nil
}

func TestRejectRevokedTokens(t *testing.T) {
	tok := token(t, service.TokenTypeEmployee, service.TokenUseAccess, model.RoleDirector, time.Hour)

	tests := []struct {
		name    string
		checker fakeRevocations
		status  int
	}{
		{"live", fakeRevocations{}, http.StatusOK},
		{"revoked", fakeRevocations{revoked: map[string]bool{"jti-employee": true}}, http.StatusUnauthorized},
		{"account deactivated since issue", fakeRevocations{generations: map[int64]int64{11: 1}}, http.StatusUnauthorized},
		{"other account revoked", fakeRevocations{generations: map[int64]int64{12: 3}}, http.StatusOK},
		{"redis down", fakeRevocations{err: errors.New("connection refused")}, http.StatusOK},
	}
	for _, tt := range tests {
		r := gin.New()
		r.GET("/x", RequireEmployeeJWT(testAuth()), RejectRevokedTokens(tt.checker, zerolog.Nop()), ok)
		if w := serve(r, http.MethodGet, "/x", tok); w.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.status)
		}
	}
}

type memoryCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (m *memoryCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *memoryCounter) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	m.expires[key] = d
	return redis.NewBoolResult(true, nil)
}

func TestRateLimiter(t *testing.T) {
	store := newMemoryCounter()
	rl := NewRateLimiter(store, "login", 2, time.Minute, zerolog.Nop())
	rl.now = func() time.Time { return time.Unix(600, 0) }

	r := gin.New()
	r.POST("/login", rl.Middleware(), ok)

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		w := serve(r, http.MethodPost, "/login", "")
		if w.Code != want {
			t.Errorf("request %d: status = %d, want %d", i+1, w.Code, want)
		}
		if want == http.StatusTooManyRequests && w.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
		}
	}
	if len(store.expires) != 1 {
		t.Errorf("expiry should be set once per window, got %d", len(store.expires))
	}

	// The next window starts fresh.
	rl.now = func() time.Time { return time.Unix(660, 0) }
	if w := serve(r, http.MethodPost, "/login", ""); w.Code != http.StatusOK {
		t.Errorf("next window: %d", w.Code)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	store := newMemoryCounter()
	store.err = errors.New("redis down")
	rl := NewRateLimiter(store, "login", 1, time.Minute, zerolog.Nop())

	r := gin.New()
	r.POST("/login", rl.Middleware(), ok)
	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodPost, "/login", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d rejected while Redis is down: %d", i+1, w.Code)
		}
	}
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat(`{"id":1,"name":"group"},`, 200)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "tiny") })
	r.GET("/uploads/a.png", func(c *gin.Context) { c.String(http.StatusOK, big) })

	get := func(path, accept string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", accept)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/big", "gzip, br;q=0.9")
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("large body not compressed")
	}
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != big {
		t.Error("decompressed body differs")
	}

	if w := get("/small", "br"); w.Header().Get("Content-Encoding") != "" || w.Body.String() != "tiny" {
		t.Errorf("small body: encoding=%q body=%q", w.Header().Get("Content-Encoding"), w.Body.String())
	}
	if w := get("/big", "gzip"); w.Header().Get("Content-Encoding") != "" {
		t.Error("client without br support got br")
	}
	if w := get("/uploads/a.png", "br"); w.Header().Get("Content-Encoding") != "" {
		t.Error("uploads must not be compressed")
	}
}

func TestBrotliStreamsFlushedEvents(t *testing.T) {
	event := "event: metrics\ndata: {\"cpu\":1}\n\n"
	big := strings.Repeat("x", 4096)

	tests := []struct {
		name   string
		accept string
	}{
		{"event stream", "text/event-stream"},
		{"flushing handler", ""},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		var delivered int

		r := gin.New()
		r.Use(Brotli())
		r.GET("/stream", func(c *gin.Context) {
			c.Writer.WriteString(event)
			c.Writer.Flush()
			delivered = w.Body.Len()
			c.Writer.WriteString(big)
		})

		req := httptest.NewRequest(http.MethodGet, "/stream", nil)
		req.Header.Set("Accept-Encoding", "br")
		if tt.accept != "" {
			req.Header.Set("Accept", tt.accept)
		}
		r.ServeHTTP(w, req)

		if delivered != len(event) {
			t.Errorf("%s: %d bytes reached the client after Flush, want %d", tt.name, delivered, len(event))
		}
		if enc := w.Result().Header.Get("Content-Encoding"); enc != "" {
			t.Errorf("%s: Content-Encoding = %q after a plain flush", tt.name, enc)
		}
		if w.Body.String() != event+big {
			t.Errorf("%s: body was altered", tt.name)
		}
	}
}

func TestCacheControl(t *testing.T) {
	r := gin.New()
	r.GET("/f", CacheControl(24*time.Hour), ok)
	w := serve(r, http.MethodGet, "/f", "")
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=86400, immutable" {
		t.Errorf("Cache-Control = %q", got)
	}
}
