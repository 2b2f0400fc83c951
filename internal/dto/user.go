package dto

// ── users ──

// UserResponse account as seen by its owner and by admins
type UserResponse struct {
	ID          string  `json:"id"`
	DiscordID   string  `json:"discord_id"`
	Username    string  `json:"username"`
	GlobalName  string  `json:"global_name"`
	AvatarURL   string  `json:"avatar_url"`
	Email       string  `json:"email,omitempty"`
	Role        string  `json:"role"`
	Bio         string  `json:"bio"`
	Website     string  `json:"website"`
	Banned      bool    `json:"banned"`
	BanReason   string  `json:"ban_reason,omitempty"`
	Version     int     `json:"version"`
	CreatedAt   string  `json:"created_at"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
}

// PublicUserResponse account fields anyone can see
type PublicUserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	AvatarURL  string `json:"avatar_url"`
	Bio        string `json:"bio"`
	Website    string `json:"website"`
	Role       string `json:"role"`
	JoinedAt   string `json:"joined_at"`
}

// PublicProfileResponse profile page: the user plus their approved content
type PublicProfileResponse struct {
	User      PublicUserResponse `json:"user"`
	Scripts   []ScriptResponse   `json:"scripts"`
	Giveaways []GiveawayResponse `json:"giveaways"`
}

// UpdateProfileRequest profile edit guarded by version
type UpdateProfileRequest struct {
	GlobalName *string `json:"global_name" binding:"omitempty,max=100"`
	Bio        *string `json:"bio"         binding:"omitempty,max=1000"`
	Website    *string `json:"website"     binding:"omitempty,max=255,url"`
	Version    int     `json:"version"     binding:"required,min=1"`
}

// UserListRequest admin user search
type UserListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
	Role    string `form:"role"    binding:"omitempty,oneof=user moderator admin"`
	Banned  *bool  `form:"banned"`
}

// SetRoleRequest role assignment
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user moderator admin"`
}

// BanRequest ban or unban
type BanRequest struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason" binding:"required_if=Banned true,max=500"`
}
