package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrRefreshRevoked     = errors.New("refresh token revoked or already used")
)

// TokenType distinguishes student vs employee tokens.
type TokenType string

const (
	TokenTypeStudent  TokenType = "student"
	TokenTypeEmployee TokenType = "employee"
)

// TokenUse distinguishes short-lived access tokens from refresh tokens.
type TokenUse string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType  `json:"token_type"`
	TokenUse    TokenUse   `json:"use"`
	UserID      int64      `json:"user_id"`
	Role        model.Role `json:"role,omitempty"`        // Employee only
	Permissions []string   `json:"permissions,omitempty"` // Employee access tokens only
	Generation  int64      `json:"gen,omitempty"`
}

// Superseded reports whether the user's sessions were revoked after this
// token was issued.
func (c *Claims) Superseded(current int64) bool {
	return c.Generation < current
}

// HasPermission reports whether the token grants perm.
func (c *Claims) HasPermission(perm model.Permission) bool {
	for _, p := range c.Permissions {
		if p == string(perm) {
			return true
		}
	}
	return false
}

// IsMentor reports whether the caller is a mentor, whose reads are scoped to
// their own groups.
func (c *Claims) IsMentor() bool {
	return c.TokenType == TokenTypeEmployee && c.Role == model.RoleMentor
}

// dummyHash keeps the timing of unknown-email logins close to real ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

// AuthService handles authentication, JWT issuing, and refresh sessions.
type AuthService struct {
	cfg       *config.Config
	rdb       *redis.Client
	employees *repository.EmployeeRepository
	students  *repository.StudentRepository
	log       zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, employees *repository.EmployeeRepository,
	students *repository.StudentRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:       cfg,
		rdb:       rdb,
		employees: employees,
		students:  students,
		log:       logger.Component(log, "auth_service"),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// EmployeeLogin verifies credentials and issues an employee token pair.
func (s *AuthService) EmployeeLogin(ctx context.Context, email, password string) (*model.EmployeeLoginResponse, error) {
	e, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.CheckPassword(e.PasswordHash, password); err != nil {
		return nil, err
	}
	if !e.IsActive {
		return nil, ErrAccountInactive
	}

	pair, err := s.IssueEmployeeTokens(ctx, e)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("employee_id", e.ID).Str("role", string(e.Role)).Msg("Employee logged in")
	return &model.EmployeeLoginResponse{
		TokenPair:   *pair,
		Employee:    *e,
		Permissions: model.PermissionsFor(e.Role),
	}, nil
}

// StudentLogin verifies credentials and issues a student token pair.
func (s *AuthService) StudentLogin(ctx context.Context, email, password string) (*model.StudentLoginResponse, error) {
	st, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.CheckPassword(st.PasswordHash, password); err != nil {
		return nil, err
	}
	if !st.IsActive {
		return nil, ErrAccountInactive
	}

	pair, err := s.IssueStudentTokens(ctx, st)
	if err != nil {
		return nil, err
	}
	return &model.StudentLoginResponse{TokenPair: *pair, Student: *st}, nil
}

// IssueEmployeeTokens creates an access token with the role's permissions
// embedded and a refresh token registered in Redis.
func (s *AuthService) IssueEmployeeTokens(ctx context.Context, e *model.Employee) (*model.TokenPair, error) {
	return s.issue(ctx, Claims{
		TokenType:   TokenTypeEmployee,
		UserID:      e.ID,
		Role:        e.Role,
		Permissions: model.PermissionsFor(e.Role),
	})
}

// IssueStudentTokens creates a student access and refresh token.
func (s *AuthService) IssueStudentTokens(ctx context.Context, st *model.Student) (*model.TokenPair, error) {
	return s.issue(ctx, Claims{TokenType: TokenTypeStudent, UserID: st.ID})
}

func (s *AuthService) issue(ctx context.Context, base Claims) (*model.TokenPair, error) {
	now := time.Now()

	gen, err := s.generation(ctx, base.TokenType, base.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session generation: %w", err)
	}
	base.Generation = gen

	access := base
	access.TokenUse = TokenUseAccess
	access.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   strconv.FormatInt(base.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTAccessExpiry)),
	}
	accessStr, err := s.sign(access)
	if err != nil {
		return nil, err
	}

	refresh := Claims{
		TokenType:  base.TokenType,
		TokenUse:   TokenUseRefresh,
		UserID:     base.UserID,
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(base.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTRefreshExpiry)),
		},
	}
	refreshStr, err := s.sign(refresh)
	if err != nil {
		return nil, err
	}

	// A refresh token is only honoured while its id is in Redis.
	key := config.CacheKey.RefreshSessionKey(refresh.ID)
	if err := s.rdb.Set(ctx, key, string(base.TokenType)+":"+refresh.Subject, s.cfg.JWTRefreshExpiry).Err(); err != nil {
		return nil, fmt.Errorf("store refresh session: %w", err)
	}

	return &model.TokenPair{Access: accessStr, Refresh: refreshStr}, nil
}

func (s *AuthService) sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Refresh rotates a refresh token. The presented token is consumed so it can
// be used only once; the user is reloaded so deactivation and role changes
// take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseRefresh {
		return nil, ErrTokenInvalid
	}

	_, err = s.rdb.GetDel(ctx, config.CacheKey.RefreshSessionKey(claims.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRefreshRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("consume refresh session: %w", err)
	}
	gen, err := s.generation(ctx, claims.TokenType, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session generation: %w", err)
	}
	if claims.Superseded(gen) {
		return nil, ErrRefreshRevoked
	}

	switch claims.TokenType {
	case TokenTypeEmployee:
		e, err := s.employees.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrRefreshRevoked
			}
			return nil, err
		}
		if !e.IsActive {
			return nil, ErrAccountInactive
		}
		return s.IssueEmployeeTokens(ctx, e)
	case TokenTypeStudent:
		st, err := s.students.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrRefreshRevoked
			}
			return nil, err
		}
		if !st.IsActive {
			return nil, ErrAccountInactive
		}
		return s.IssueStudentTokens(ctx, st)
	default:
		return nil, ErrTokenInvalid
	}
}

// Logout revokes a refresh token. Unknown or already revoked tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}
	if claims.TokenUse != TokenUseRefresh {
		return ErrTokenInvalid
	}
	return s.rdb.Del(ctx, config.CacheKey.RefreshSessionKey(claims.ID)).Err()
}

// RevokeAccess blocks an access token until it would have expired anyway.
func (s *AuthService) RevokeAccess(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, config.CacheKey.RevokedAccessKey(claims.ID), "1", ttl).Err()
}

// IsAccessRevoked reports whether the access token was revoked at logout or
// belongs to a user whose sessions were revoked since it was issued.
func (s *AuthService) IsAccessRevoked(ctx context.Context, claims *Claims) (bool, error) {
	var (
		logout *redis.IntCmd
		gen    *redis.StringCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		logout = p.Exists(ctx, config.CacheKey.RevokedAccessKey(claims.ID))
		gen = p.Get(ctx, config.CacheKey.SessionGenerationKey(string(claims.TokenType), claims.UserID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	if logout.Val() > 0 {
		return true, nil
	}
	current, err := gen.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return claims.Superseded(current), nil
}

// RevokeUserSessions invalidates every access and refresh token issued to the
// user so far. Tokens issued afterwards carry the new generation.
func (s *AuthService) RevokeUserSessions(ctx context.Context, typ TokenType, userID int64) error {
	return s.rdb.Incr(ctx, config.CacheKey.SessionGenerationKey(string(typ), userID)).Err()
}

func (s *AuthService) generation(ctx context.Context, typ TokenType, userID int64) (int64, error) {
	n, err := s.rdb.Get(ctx, config.CacheKey.SessionGenerationKey(string(typ), userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
