package dto

// ── auth ──

// RefreshTokenRequest refresh request body, used when the cookie is absent
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse issued token pair
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"` // omitted in cookie mode
	ExpiresIn    int          `json:"expires_in"`              // access token lifetime in seconds
	User         UserResponse `json:"user"`
}

// DiscordCallbackRequest query of the OAuth redirect
type DiscordCallbackRequest struct {
	Code             string `form:"code"`
	State            string `form:"state"              binding:"required"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}
