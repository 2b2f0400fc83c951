package model

import (
	"time"

	"gorm.io/gorm"
)

// Giveaway a community giveaway. Backed by pending_giveaways, approved_giveaways
// and rejected_giveaways; requirements, prizes and entries reference it by id
// and stay put when the parent row moves.
type Giveaway struct {
	GiveawayID     string     `gorm:"type:uuid;primaryKey"       json:"giveaway_id"`
	CreatorID      string     `gorm:"type:uuid;not null"         json:"creator_id"`
	Title          string     `gorm:"type:varchar(120);not null" json:"title"`
	Description    string     `gorm:"type:text;not null"         json:"description"`
	CoverImage     string     `gorm:"type:varchar(500)"          json:"cover_image"`
	StartAt        time.Time  `gorm:"not null"                   json:"start_at"`
	EndAt          time.Time  `gorm:"not null"                   json:"end_at"`
	WinnerCount    int        `gorm:"not null;default:1"         json:"winner_count"`
	WinnersDrawnAt *time.Time `json:"winners_drawn_at,omitempty"`
	ReviewFields
	BaseModel
}

func (g *Giveaway) BeforeCreate(_ *gorm.DB) error {
	ensureID(&g.GiveawayID)
	return nil
}

// Running reports whether entries are accepted at now.
func (g *Giveaway) Running(now time.Time) bool {
	return !now.Before(g.StartAt) && now.Before(g.EndAt)
}

// Requirement kinds
const (
	RequirementDiscordMember = "discord_member"
	RequirementAccountAge    = "account_age"
	RequirementCustom        = "custom"
)

// GiveawayRequirement a condition an entrant must satisfy (giveaway_requirements)
type GiveawayRequirement struct {
	RequirementID     string `gorm:"type:uuid;primaryKey"            json:"requirement_id"`
	GiveawayID        string `gorm:"type:uuid;not null;index"        json:"giveaway_id"`
	Type              string `gorm:"type:varchar(30);not null"       json:"type"`
	GuildID           string `gorm:"type:varchar(32)"                json:"guild_id,omitempty"`
	InviteURL         string `gorm:"type:varchar(255)"               json:"invite_url,omitempty"`
	MinAccountAgeDays int    `gorm:"not null;default:0"              json:"min_account_age_days,omitempty"`
	Description       string `gorm:"type:text"                       json:"description,omitempty"`
	SortOrder         int    `gorm:"not null;default:0"              json:"sort_order"`
	BaseModel
}

// TableName table name
func (GiveawayRequirement) TableName() string { return "giveaway_requirements" }

func (r *GiveawayRequirement) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.RequirementID)
	return nil
}

// GiveawayPrize a prize bound to a place, or unassigned when Place is nil (giveaway_prizes)
type GiveawayPrize struct {
	PrizeID     string `gorm:"type:uuid;primaryKey"       json:"prize_id"`
	GiveawayID  string `gorm:"type:uuid;not null;index"   json:"giveaway_id"`
	Place       *int   `json:"place,omitempty"`
	Title       string `gorm:"type:varchar(120);not null" json:"title"`
	Description string `gorm:"type:text"                  json:"description,omitempty"`
	Quantity    int    `gorm:"not null;default:1"         json:"quantity"`
	BaseModel
}

// TableName table name
func (GiveawayPrize) TableName() string { return "giveaway_prizes" }

func (p *GiveawayPrize) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.PrizeID)
	return nil
}

// GiveawayEntry one participant of a giveaway (giveaway_entries)
type GiveawayEntry struct {
	EntryID    string    `gorm:"type:uuid;primaryKey"                                    json:"entry_id"`
	GiveawayID string    `gorm:"type:uuid;not null;uniqueIndex:idx_giveaway_entries_user" json:"giveaway_id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_giveaway_entries_user" json:"user_id"`
	EnteredAt  time.Time `gorm:"not null"                                                json:"entered_at"`
	IsWinner   bool      `gorm:"not null;default:false"                                  json:"is_winner"`
	Place      *int      `json:"place,omitempty"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName table name
func (GiveawayEntry) TableName() string { return "giveaway_entries" }

func (e *GiveawayEntry) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.EntryID)
	return nil
}
