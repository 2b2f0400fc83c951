package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Script a marketplace listing. The same columns back pending_scripts,
// approved_scripts and rejected_scripts; the table is chosen per query.
type Script struct {
	ScriptID    string         `gorm:"type:uuid;primaryKey"        json:"script_id"`
	SellerID    string         `gorm:"type:uuid;not null"          json:"seller_id"`
	Title       string         `gorm:"type:varchar(120);not null"  json:"title"`
	Slug        string         `gorm:"type:varchar(160);not null"  json:"slug"`
	Description string         `gorm:"type:text;not null"          json:"description"`
	Category    string         `gorm:"type:varchar(50);not null"   json:"category"`
	Framework   string         `gorm:"type:varchar(50)"            json:"framework"`
	PriceCents  int64          `gorm:"not null;default:0"          json:"price_cents"`
	Currency    string         `gorm:"type:varchar(3);not null"    json:"currency"`
	StoreURL    string         `gorm:"type:varchar(500)"           json:"store_url"`
	VideoURL    string         `gorm:"type:varchar(500)"           json:"video_url"`
	CoverImage  string         `gorm:"type:varchar(500)"           json:"cover_image"`
	Images      datatypes.JSON `json:"images"`
	Tags        datatypes.JSON `json:"tags"`
	ReviewFields
	BaseModel
}

func (s *Script) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ScriptID)
	return nil
}
