package dto

import "time"

// ── slots ──

// CreateSlotRequest admin records a paid placement
type CreateSlotRequest struct {
	Kind        string    `json:"kind"         binding:"required,oneof=ad featured_script"`
	TargetID    string    `json:"target_id"    binding:"required,uuid"`
	UserID      string    `json:"user_id"      binding:"required,uuid"`
	StartAt     time.Time `json:"start_at"     binding:"required"`
	EndAt       time.Time `json:"end_at"       binding:"required"`
	AmountCents int64     `json:"amount_cents" binding:"min=0"`
	Currency    string    `json:"currency"     binding:"omitempty,len=3,alpha"`
	Note        string    `json:"note"         binding:"max=500"`
}

// SlotListRequest admin slot listing
type SlotListRequest struct {
	PaginationRequest
	Kind     string `form:"kind"      binding:"omitempty,oneof=ad featured_script"`
	Status   string `form:"status"    binding:"omitempty,oneof=active cancelled expired"`
	UserID   string `form:"user_id"   binding:"omitempty,uuid"`
	TargetID string `form:"target_id" binding:"omitempty,uuid"`
}

// SlotWindowRequest time window query used by availability, calendar and export
type SlotWindowRequest struct {
	Kind string    `form:"kind" binding:"omitempty,oneof=ad featured_script"`
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to"   time_format:"2006-01-02T15:04:05Z07:00"`
}

// SlotResponse placement
type SlotResponse struct {
	ID          string  `json:"id"`
	Reference   string  `json:"reference"`
	Kind        string  `json:"kind"`
	TargetID    string  `json:"target_id"`
	UserID      string  `json:"user_id"`
	StartAt     string  `json:"start_at"`
	EndAt       string  `json:"end_at"`
	AmountCents int64   `json:"amount_cents"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	Note        string  `json:"note,omitempty"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// BookedWindow occupied interval
type BookedWindow struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

// AvailabilityResponse occupancy of one slot kind over a window
type AvailabilityResponse struct {
	Kind      string         `json:"kind"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Capacity  int            `json:"capacity"`
	Occupied  int64          `json:"occupied"`
	Available int64          `json:"available"`
	Booked    []BookedWindow `json:"booked"`
}
