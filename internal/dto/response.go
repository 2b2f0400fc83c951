package dto

// ── paging ──

// PaginationRequest common paging query parameters
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset of the page
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// StateListRequest owner listing of their own submissions in one moderation state
type StateListRequest struct {
	PaginationRequest
	State string `form:"state" binding:"omitempty,oneof=pending approved rejected"`
}

// GetState defaults to pending
func (r *StateListRequest) GetState() string {
	if r.State == "" {
		return "pending"
	}
	return r.State
}

// ReviewInfo moderation bookkeeping exposed to owners and staff
type ReviewInfo struct {
	State           string  `json:"state"`
	SubmittedAt     string  `json:"submitted_at"`
	ReviewedBy      *string `json:"reviewed_by,omitempty"`
	ReviewedAt      *string `json:"reviewed_at,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
}
