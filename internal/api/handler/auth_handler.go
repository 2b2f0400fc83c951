package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

const (
	refreshCookie = "refresh_token"
	stateCookie   = "oauth_state"
	// cookies are scoped to the auth routes
	authCookiePath = "/api/v1/auth"
	stateMaxAge    = 600
)

// AuthHandler Discord login and token endpoints
type AuthHandler struct {
	authSvc service.AuthService
	cookie  config.CookieConfig
	// refreshMaxAge refresh cookie lifetime in seconds
	refreshMaxAge int
	logger        *zap.Logger
}

// NewAuthHandler creates an AuthHandler. cfg may be nil in tests.
func NewAuthHandler(authSvc service.AuthService, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	h := &AuthHandler{authSvc: authSvc, logger: logger, refreshMaxAge: 7 * 24 * 3600}
	if cfg != nil {
		h.cookie = cfg.Auth.Cookie
		h.refreshMaxAge = int(cfg.Auth.RefreshTokenTTL.Seconds())
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// DiscordLogin redirects to the Discord consent page
// GET /api/v1/auth/discord
func (h *AuthHandler) DiscordLogin(c *gin.Context) {
	url, state := h.authSvc.LoginURL()
	h.setCookie(c, stateCookie, state, stateMaxAge)
	c.Redirect(http.StatusFound, url)
}

// DiscordCallback completes the OAuth flow and issues tokens
// GET /api/v1/auth/discord/callback
func (h *AuthHandler) DiscordCallback(c *gin.Context) {
	var req dto.DiscordCallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	expected, err := c.Cookie(stateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(expected), []byte(req.State)) != 1 {
		response.BadRequest(c, CodeOAuthState, "OAuth state mismatch, restart the login")
		return
	}
	h.setCookie(c, stateCookie, "", -1)

	code := req.Code
	if req.Error != "" {
		h.logger.Info("discord authorization denied", zap.String("error", req.Error), zap.String("description", req.ErrorDescription))
		code = ""
	}

	result, err := h.authSvc.DiscordCallback(c.Request.Context(), code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.respondTokens(c, result)
}

// RefreshToken rotates the token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		response.BadRequest(c, CodeInvalidParams, "refresh token is required")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.respondTokens(c, result)
}

// Logout revokes the current tokens
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), accessClaims(c), h.refreshTokenFrom(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.setCookie(c, refreshCookie, "", -1)
	response.OK(c, nil)
}

// refreshTokenFrom cookie first, then the JSON body
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(refreshCookie); err == nil && v != "" {
		return v
	}
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	return req.RefreshToken
}

// respondTokens moves the refresh token into an httpOnly cookie.
func (h *AuthHandler) respondTokens(c *gin.Context, result *dto.TokenResponse) {
	h.setCookie(c, refreshCookie, result.RefreshToken, h.refreshMaxAge)
	out := *result
	out.RefreshToken = ""
	response.OK(c, out)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(name, value, maxAge, authCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func sameSite(v string) http.SameSite {
	switch v {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
