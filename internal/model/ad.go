package model

import "gorm.io/gorm"

// Ad a Discord server advertisement. Backed by pending_ads, approved_ads and rejected_ads.
type Ad struct {
	AdID          string `gorm:"type:uuid;primaryKey"        json:"ad_id"`
	AdvertiserID  string `gorm:"type:uuid;not null"          json:"advertiser_id"`
	Title         string `gorm:"type:varchar(120);not null"  json:"title"`
	Description   string `gorm:"type:text;not null"          json:"description"`
	ImageURL      string `gorm:"type:varchar(500)"           json:"image_url"`
	LinkURL       string `gorm:"type:varchar(500)"           json:"link_url"`
	DiscordInvite string `gorm:"type:varchar(100);not null"  json:"discord_invite"`
	GuildID       string `gorm:"type:varchar(32)"            json:"guild_id"`
	GuildName     string `gorm:"type:varchar(100)"           json:"guild_name"`
	MemberCount   int    `gorm:"not null;default:0"          json:"member_count"`
	ReviewFields
	BaseModel
}

func (a *Ad) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.AdID)
	return nil
}
