package dto

// ── moderation ──

// RejectRequest rejection with a reason shown to the owner
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=1000"`
}

// QueueRequest moderation queue query
type QueueRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// QueueItem summary row of the moderation queue
type QueueItem struct {
	EntityType string `json:"entity_type"`
	ID         string `json:"id"`
	Title      string `json:"title"`
	OwnerID    string `json:"owner_id"`
	ReviewInfo
}

// ModerationLogListRequest audit log query
type ModerationLogListRequest struct {
	PaginationRequest
	EntityType string `form:"entity_type" binding:"omitempty,oneof=script giveaway ad"`
	EntityID   string `form:"entity_id"   binding:"omitempty,uuid"`
	ActorID    string `form:"actor_id"    binding:"omitempty,uuid"`
	Action     string `form:"action"      binding:"omitempty,oneof=submit approve reject resubmit delete"`
}

// ModerationLogResponse audit entry
type ModerationLogResponse struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id"`
	FromState  string `json:"from_state,omitempty"`
	ToState    string `json:"to_state,omitempty"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ── dashboard ──

// StateCounts rows per moderation table
type StateCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// DashboardStats admin overview
type DashboardStats struct {
	Scripts             StateCounts `json:"scripts"`
	Giveaways           StateCounts `json:"giveaways"`
	Ads                 StateCounts `json:"ads"`
	Users               int64       `json:"users"`
	ActiveAdSlots       int64       `json:"active_ad_slots"`
	ActiveFeaturedSlots int64       `json:"active_featured_slots"`
	RevenueCents        int64       `json:"revenue_cents"`
	GeneratedAt         string      `json:"generated_at"`
}

// ── uploads ──

// UploadResponse stored image
type UploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}
