package model

import (
	"time"

	"gorm.io/gorm"
)

// ModerationState names the table a moderated row currently lives in.
type ModerationState string

const (
	StatePending  ModerationState = "pending"
	StateApproved ModerationState = "approved"
	StateRejected ModerationState = "rejected"
)

// States lookup order used when locating a row
var States = []ModerationState{StatePending, StateApproved, StateRejected}

// Valid reports whether s is one of the three states.
func (s ModerationState) Valid() bool {
	return s == StatePending || s == StateApproved || s == StateRejected
}

// Table returns the physical table holding rows of base in this state,
// e.g. StateApproved.Table(ScriptsBase) == "approved_scripts".
func (s ModerationState) Table(base string) string {
	return string(s) + "_" + base
}

// Base names of the moderated table families
const (
	ScriptsBase   = "scripts"
	GiveawaysBase = "giveaways"
	AdsBase       = "ads"
)

// EntityType moderated entity kinds
type EntityType string

const (
	EntityScript   EntityType = "script"
	EntityGiveaway EntityType = "giveaway"
	EntityAd       EntityType = "ad"
)

// Valid reports whether t is a known entity kind.
func (t EntityType) Valid() bool {
	return t == EntityScript || t == EntityGiveaway || t == EntityAd
}

// ReviewFields moderation bookkeeping carried by rows in all three tables
type ReviewFields struct {
	SubmittedAt     time.Time  `gorm:"not null"  json:"submitted_at"`
	ReviewedBy      *string    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
}

// MarkReviewed records a moderator decision.
func (r *ReviewFields) MarkReviewed(reviewerID string, at time.Time, reason string) {
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &at
	r.RejectionReason = reason
}

// ResetReview clears the previous decision so the row can be reviewed again.
func (r *ReviewFields) ResetReview(at time.Time) {
	r.SubmittedAt = at
	r.ReviewedBy = nil
	r.ReviewedAt = nil
	r.RejectionReason = ""
}

// ModerationAction audit log verbs
type ModerationAction string

const (
	ActionSubmit   ModerationAction = "submit"
	ActionApprove  ModerationAction = "approve"
	ActionReject   ModerationAction = "reject"
	ActionResubmit ModerationAction = "resubmit"
	ActionDelete   ModerationAction = "delete"
)

// ModerationLog audit trail of workflow transitions (moderation_logs)
type ModerationLog struct {
	LogID      string           `gorm:"type:uuid;primaryKey"      json:"log_id"`
	EntityType EntityType       `gorm:"type:varchar(20);not null" json:"entity_type"`
	EntityID   string           `gorm:"type:uuid;not null"        json:"entity_id"`
	Action     ModerationAction `gorm:"type:varchar(20);not null" json:"action"`
	ActorID    string           `gorm:"type:uuid;not null"        json:"actor_id"`
	FromState  string           `gorm:"type:varchar(20)"          json:"from_state,omitempty"`
	ToState    string           `gorm:"type:varchar(20)"          json:"to_state,omitempty"`
	Reason     string           `gorm:"type:text"                 json:"reason,omitempty"`
	CreatedAt  time.Time        `gorm:"not null"                  json:"created_at"`
}

// TableName table name
func (ModerationLog) TableName() string { return "moderation_logs" }

func (l *ModerationLog) BeforeCreate(_ *gorm.DB) error {
	ensureID(&l.LogID)
	return nil
}
