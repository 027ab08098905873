package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
)

// RevocationChecker reports whether an access token was revoked, either at
// logout or because the account was deactivated or changed role.
type RevocationChecker interface {
	IsAccessRevoked(ctx context.Context, claims *service.Claims) (bool, error)
}

// RejectRevokedTokens turns away access tokens revoked in Redis.
// A Redis outage does not lock everybody out: the token is let through and
// the failure is logged.
func RejectRevokedTokens(checker RevocationChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		revoked, err := checker.IsAccessRevoked(c.Request.Context(), claims)
		if err != nil {
			log.Warn().Err(err).Str("jti", claims.ID).Msg("Revocation check failed")
			c.Next()
			return
		}
		if revoked {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Next()
	}
}
