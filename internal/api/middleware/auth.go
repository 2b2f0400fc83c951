package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FiveCrux/FiveCrux-sub000/pkg/authz"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// keys read back by handler.MustGetActor
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxStaff  = "staff"
	ctxClaims = "claims"
)

const (
	codeUnauthenticated = 10002
	codeForbidden       = 10003
)

// TokenChecker revoked token lookup; implemented by *redis.Client.
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth requires a valid access token in Authorization: Bearer <token>.
// blacklist may be nil when redis is not configured; lookup errors let the request through.
func JWTAuth(jwtMgr *jwt.Manager, blacklist TokenChecker, az *authz.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, codeUnauthenticated, "missing or malformed Authorization header")
			return
		}

		claims, msg := verify(c.Request.Context(), jwtMgr, blacklist, token)
		if claims == nil {
			response.Unauthorized(c, codeUnauthenticated, msg)
			return
		}

		setIdentity(c, claims, az)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is sent and otherwise
// continues anonymously. Used on public reads where owners and staff see more.
func OptionalAuth(jwtMgr *jwt.Manager, blacklist TokenChecker, az *authz.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, _ := verify(c.Request.Context(), jwtMgr, blacklist, token); claims != nil {
				setIdentity(c, claims, az)
			}
		}
		c.Next()
	}
}

// RequirePermission checks the caller's role against the casbin policy.
// Must run after JWTAuth.
func RequirePermission(az *authz.Authorizer, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		if role == "" {
			response.Unauthorized(c, codeUnauthenticated, "authentication required")
			return
		}
		if !az.Allowed(role, obj, act) {
			response.Forbidden(c, codeForbidden, "permission denied")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// verify returns the claims of a usable access token, or nil and the reason.
func verify(ctx context.Context, jwtMgr *jwt.Manager, blacklist TokenChecker, token string) (*jwt.Claims, string) {
	claims, err := jwtMgr.ParseToken(token)
	if err != nil {
		return nil, "token is invalid or expired"
	}
	if claims.TokenType != "access" {
		return nil, "access token required"
	}
	if blacklist != nil {
		if revoked, err := blacklist.IsBlacklisted(ctx, claims.ID); err == nil && revoked {
			return nil, "token has been revoked"
		}
	}
	return claims, ""
}

func setIdentity(c *gin.Context, claims *jwt.Claims, az *authz.Authorizer) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxStaff, az.IsStaff(claims.Role))
	c.Set(ctxClaims, claims)
}
