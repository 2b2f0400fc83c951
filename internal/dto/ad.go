package dto

// ── ads ──

// CreateAdRequest Discord server advertisement
type CreateAdRequest struct {
	Title         string `json:"title"          binding:"required,min=3,max=120"`
	Description   string `json:"description"    binding:"required,min=10,max=2000"`
	ImageURL      string `json:"image_url"      binding:"omitempty,url,max=500"`
	LinkURL       string `json:"link_url"       binding:"omitempty,url,max=500"`
	DiscordInvite string `json:"discord_invite" binding:"required,discord_invite"`
}

// UpdateAdRequest partial edit; approved and rejected ads go back to review
type UpdateAdRequest struct {
	Title         *string `json:"title"          binding:"omitempty,min=3,max=120"`
	Description   *string `json:"description"    binding:"omitempty,min=10,max=2000"`
	ImageURL      *string `json:"image_url"      binding:"omitempty,url,max=500"`
	LinkURL       *string `json:"link_url"       binding:"omitempty,url,max=500"`
	DiscordInvite *string `json:"discord_invite" binding:"omitempty,discord_invite"`
}

// AdListRequest listing query
type AdListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// AdResponse ad detail
type AdResponse struct {
	ID            string `json:"id"`
	AdvertiserID  string `json:"advertiser_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	LinkURL       string `json:"link_url"`
	DiscordInvite string `json:"discord_invite"`
	GuildID       string `json:"guild_id"`
	GuildName     string `json:"guild_name"`
	MemberCount   int    `json:"member_count"`
	CreatedAt     string `json:"created_at"`
	ReviewInfo
}

// InviteCheckResponse invite verification result
type InviteCheckResponse struct {
	Code        string `json:"code"`
	GuildID     string `json:"guild_id"`
	GuildName   string `json:"guild_name"`
	MemberCount int    `json:"member_count"`
}
