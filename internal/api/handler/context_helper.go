package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// Context keys written by the auth middleware
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxStaff  = "staff"
	CtxClaims = "claims"
)

// MustGetUserID extracts user_id from the gin context.
// Writes a 401 and returns false when the auth middleware did not run;
// the caller should return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, CodeUnauthenticated, "authentication required")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, CodeUnauthenticated, "authentication required")
		return "", false
	}
	return s, true
}

// MustGetActor the authenticated caller
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID: userID,
		Role:   c.GetString(CtxRole),
		Staff:  c.GetBool(CtxStaff),
	}, true
}

// Viewer the caller on public routes; anonymous callers get an empty Actor.
func Viewer(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: c.GetString(CtxUserID),
		Role:   c.GetString(CtxRole),
		Staff:  c.GetBool(CtxStaff),
	}
}

// accessClaims claims of the bearer token, nil on public routes
func accessClaims(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
