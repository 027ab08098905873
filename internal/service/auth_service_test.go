package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/model"
)

func newTestAuth(secret string) *AuthService {
	cfg := &config.Config{
		JWTSecret:        secret,
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
		BcryptCost:       bcrypt.MinCost,
	}
	return NewAuthService(cfg, nil, nil, nil, zerolog.Nop())
}

func testClaims(use TokenUse, expires time.Time) Claims {
	return Claims{
		TokenType:   TokenTypeEmployee,
		TokenUse:    use,
		UserID:      7,
		Role:        model.RoleAccountant,
		Permissions: model.PermissionsFor(model.RoleAccountant),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
}

func TestValidateTokenRoundTrip(t *testing.T) {
	s := newTestAuth("secret")
	token, err := s.sign(testClaims(TokenUseAccess, time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 7 || claims.Role != model.RoleAccountant || claims.TokenUse != TokenUseAccess {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if !claims.HasPermission(model.PermissionPayrollWrite) {
		t.Error("accountant token should carry payroll:write")
	}
	if claims.HasPermission(model.PermissionEmployeesWrite) {
		t.Error("accountant token must not carry employees:write")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestAuth("secret")

	expired, _ := s.sign(testClaims(TokenUseAccess, time.Now().Add(-time.Minute)))
	if _, err := s.ValidateToken(expired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token: got %v, want ErrTokenExpired", err)
	}

	foreign, _ := newTestAuth("other").sign(testClaims(TokenUseAccess, time.Now().Add(time.Hour)))
	if _, err := s.ValidateToken(foreign); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("foreign token: got %v, want ErrTokenInvalid", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(TokenUseAccess, time.Now().Add(time.Hour))).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("alg none: got %v, want ErrTokenInvalid", err)
	}

	if _, err := s.ValidateToken("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("garbage: got %v, want ErrTokenInvalid", err)
	}
}

func TestRefreshRequiresRefreshToken(t *testing.T) {
	s := newTestAuth("secret")
	access, _ := s.sign(testClaims(TokenUseAccess, time.Now().Add(time.Hour)))

	if _, err := s.Refresh(context.Background(), access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Refresh(access) = %v, want ErrTokenInvalid", err)
	}
	if err := s.Logout(context.Background(), access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Logout(access) = %v, want ErrTokenInvalid", err)
	}

	expiredRefresh, _ := s.sign(testClaims(TokenUseRefresh, time.Now().Add(-time.Minute)))
	if err := s.Logout(context.Background(), expiredRefresh); err != nil {
		t.Errorf("Logout(expired refresh) = %v, want nil", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	s := newTestAuth("secret")
	hash, err := s.HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := s.CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrInvalidCredentials", err)
	}
}

func TestScopeFor(t *testing.T) {
	mentor := &Claims{TokenType: TokenTypeEmployee, UserID: 3, Role: model.RoleMentor}
	director := &Claims{TokenType: TokenTypeEmployee, UserID: 1, Role: model.RoleDirector}
	student := &Claims{TokenType: TokenTypeStudent, UserID: 9}

	if sc := ScopeFor(mentor); sc.MentorID == nil || *sc.MentorID != 3 || sc.StudentID != nil {
		t.Errorf("mentor scope = %+v", sc)
	}
	if sc := ScopeFor(director); sc.MentorID != nil || sc.StudentID != nil {
		t.Errorf("director scope = %+v", sc)
	}
	if sc := ScopeFor(student); sc.StudentID == nil || *sc.StudentID != 9 {
		t.Errorf("student scope = %+v", sc)
	}

	mentorID, other := int64(3), int64(4)
	sc := ScopeFor(mentor)
	if !sc.AllowsGroup(&model.Group{MentorID: &mentorID}) {
		t.Error("mentor should see own group")
	}
	if sc.AllowsGroup(&model.Group{MentorID: &other}) || sc.AllowsGroup(&model.Group{}) {
		t.Error("mentor must not see other groups")
	}
	if ScopeFor(student).AllowsInvoice(&model.Invoice{StudentID: 10}) {
		t.Error("student must not see another student's invoice")
	}
	if !ScopeFor(director).AllowsInvoice(&model.Invoice{StudentID: 10}) {
		t.Error("director sees every invoice")
	}
}

func TestClaimsSuperseded(t *testing.T) {
	c := testClaims(TokenUseAccess, time.Now().Add(time.Hour))
	if c.Superseded(0) {
		t.Error("token of a never revoked user is superseded")
	}
	c.Generation = 2
	if c.Superseded(2) {
		t.Error("token of the current generation is superseded")
	}
	if !c.Superseded(3) {
		t.Error("token issued before a revocation is still live")
	}
}

func TestGenerationSurvivesSigning(t *testing.T) {
	s := newTestAuth("secret")
	c := testClaims(TokenUseRefresh, time.Now().Add(time.Hour))
	c.Generation = 4
	token, err := s.sign(c)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Generation != 4 {
		t.Errorf("generation = %d, want 4", claims.Generation)
	}
}
