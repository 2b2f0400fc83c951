package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles, each one inherits the permissions of the previous
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User marketplace account linked to a Discord identity (users)
type User struct {
	UserID      string         `gorm:"type:uuid;primaryKey"                      json:"user_id"`
	DiscordID   string         `gorm:"type:varchar(32);not null;uniqueIndex"     json:"discord_id"`
	Username    string         `gorm:"type:varchar(100);not null"                json:"username"`
	GlobalName  string         `gorm:"type:varchar(100)"                         json:"global_name"`
	Avatar      string         `gorm:"type:varchar(255)"                         json:"avatar"`
	Email       string         `gorm:"type:varchar(255)"                         json:"email"`
	Role        string         `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Bio         string         `gorm:"type:text"                                 json:"bio"`
	Website     string         `gorm:"type:varchar(255)"                         json:"website"`
	Banned      bool           `gorm:"not null;default:false"                    json:"banned"`
	BanReason   string         `gorm:"type:text"                                 json:"ban_reason,omitempty"`
	GuildIDs    datatypes.JSON `json:"guild_ids"` // Discord guilds captured at the last login
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	VersionedModel
}

// TableName table name
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.UserID)
	return nil
}

// InGuild reports whether the guild was in the user's last membership snapshot.
func (u *User) InGuild(guildID string) bool {
	for _, id := range ParseStringList(u.GuildIDs) {
		if id == guildID {
			return true
		}
	}
	return false
}

// AvatarURL Discord CDN avatar url, empty when the user has none
func (u *User) AvatarURL() string {
	if u.Avatar == "" {
		return ""
	}
	return "https://cdn.discordapp.com/avatars/" + u.DiscordID + "/" + u.Avatar + ".png"
}
