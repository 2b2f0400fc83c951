package dto

import "time"

// ── giveaways ──

// RequirementInput entry condition
type RequirementInput struct {
	Type              string `json:"type"                 binding:"required,oneof=discord_member account_age custom"`
	GuildID           string `json:"guild_id"             binding:"required_if=Type discord_member,omitempty,numeric,max=32"`
	InviteURL         string `json:"invite_url"           binding:"omitempty,discord_invite"`
	MinAccountAgeDays int    `json:"min_account_age_days" binding:"required_if=Type account_age,omitempty,min=1,max=3650"`
	Description       string `json:"description"          binding:"required_if=Type custom,max=500"`
}

// PrizeInput prize for a place, or for any winner when Place is empty
type PrizeInput struct {
	Place       *int   `json:"place"       binding:"omitempty,min=1,max=100"`
	Title       string `json:"title"       binding:"required,max=120"`
	Description string `json:"description" binding:"max=1000"`
	Quantity    int    `json:"quantity"    binding:"omitempty,min=1,max=1000"`
}

// CreateGiveawayRequest new giveaway
type CreateGiveawayRequest struct {
	Title        string             `json:"title"         binding:"required,min=3,max=120"`
	Description  string             `json:"description"   binding:"required,min=10,max=10000"`
	CoverImage   string             `json:"cover_image"   binding:"omitempty,url,max=500"`
	StartAt      time.Time          `json:"start_at"      binding:"required"`
	EndAt        time.Time          `json:"end_at"        binding:"required"`
	WinnerCount  int                `json:"winner_count"  binding:"required,min=1,max=100"`
	Requirements []RequirementInput `json:"requirements"  binding:"omitempty,max=10,dive"`
	Prizes       []PrizeInput       `json:"prizes"        binding:"required,min=1,max=50,dive"`
}

// UpdateGiveawayRequest partial edit; nil slices keep the current children
type UpdateGiveawayRequest struct {
	Title        *string             `json:"title"         binding:"omitempty,min=3,max=120"`
	Description  *string             `json:"description"   binding:"omitempty,min=10,max=10000"`
	CoverImage   *string             `json:"cover_image"   binding:"omitempty,url,max=500"`
	StartAt      *time.Time          `json:"start_at"`
	EndAt        *time.Time          `json:"end_at"`
	WinnerCount  *int                `json:"winner_count"  binding:"omitempty,min=1,max=100"`
	Requirements *[]RequirementInput `json:"requirements"  binding:"omitempty,max=10,dive"`
	Prizes       *[]PrizeInput       `json:"prizes"        binding:"omitempty,min=1,max=50,dive"`
}

// GiveawayListRequest public listing query
type GiveawayListRequest struct {
	PaginationRequest
	Keyword   string `form:"keyword"    binding:"omitempty,max=50"`
	CreatorID string `form:"creator_id" binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=upcoming running ended"`
}

// RequirementResponse entry condition
type RequirementResponse struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	GuildID           string `json:"guild_id,omitempty"`
	InviteURL         string `json:"invite_url,omitempty"`
	MinAccountAgeDays int    `json:"min_account_age_days,omitempty"`
	Description       string `json:"description,omitempty"`
}

// PrizeResponse prize
type PrizeResponse struct {
	ID          string `json:"id"`
	Place       *int   `json:"place,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
}

// EntryResponse participant
type EntryResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	EnteredAt string `json:"entered_at"`
	IsWinner  bool   `json:"is_winner"`
	Place     *int   `json:"place,omitempty"`
}

// GiveawayResponse giveaway detail
type GiveawayResponse struct {
	ID             string                `json:"id"`
	CreatorID      string                `json:"creator_id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	CoverImage     string                `json:"cover_image"`
	StartAt        string                `json:"start_at"`
	EndAt          string                `json:"end_at"`
	Status         string                `json:"status"`
	WinnerCount    int                   `json:"winner_count"`
	WinnersDrawnAt *string               `json:"winners_drawn_at,omitempty"`
	EntryCount     int64                 `json:"entry_count"`
	Requirements   []RequirementResponse `json:"requirements"`
	Prizes         []PrizeResponse       `json:"prizes"`
	Winners        []EntryResponse       `json:"winners,omitempty"`
	CreatedAt      string                `json:"created_at"`
	ReviewInfo
}

// DrawResultResponse outcome of a winner draw
type DrawResultResponse struct {
	GiveawayID string          `json:"giveaway_id"`
	DrawnAt    string          `json:"drawn_at"`
	Winners    []EntryResponse `json:"winners"`
}
