package model

import (
	"time"

	"gorm.io/gorm"
)

// Slot kinds
const (
	SlotKindAd             = "ad"
	SlotKindFeaturedScript = "featured_script"
)

// Slot statuses
const (
	SlotStatusActive    = "active"
	SlotStatusCancelled = "cancelled"
	SlotStatusExpired   = "expired"
)

// SlotPurchase a paid placement of an ad or a featured script (slot_purchases)
type SlotPurchase struct {
	SlotID      string     `gorm:"type:uuid;primaryKey"                    json:"slot_id"`
	Reference   string     `gorm:"type:varchar(32);not null;uniqueIndex"   json:"reference"`
	Kind        string     `gorm:"type:varchar(30);not null;index"         json:"kind"`
	TargetID    string     `gorm:"type:uuid;not null;index"                json:"target_id"`
	UserID      string     `gorm:"type:uuid;not null;index"                json:"user_id"`
	StartAt     time.Time  `gorm:"not null"                                json:"start_at"`
	EndAt       time.Time  `gorm:"not null"                                json:"end_at"`
	AmountCents int64      `gorm:"not null;default:0"                      json:"amount_cents"`
	Currency    string     `gorm:"type:varchar(3);not null"                json:"currency"`
	Status      string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Note        string     `gorm:"type:text"                               json:"note,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	BaseModel
}

// TableName table name
func (SlotPurchase) TableName() string { return "slot_purchases" }

func (s *SlotPurchase) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.SlotID)
	return nil
}

// Covers reports whether the placement is live at t.
func (s *SlotPurchase) Covers(t time.Time) bool {
	return s.Status == SlotStatusActive && !t.Before(s.StartAt) && t.Before(s.EndAt)
}
